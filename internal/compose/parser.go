package compose

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	cwerrors "composewait/internal/errors"
)

// ComposeFile represents the parts of a docker-compose.yaml file composewait reads
type ComposeFile struct {
	Name string `yaml:"name"`
	// Services holds service definitions keyed by name.
	Services map[string]*ComposeService `yaml:"services"`
	// order is the declaration order of Services.
	order []string
}

// ComposeService represents a service in docker-compose.yaml
type ComposeService struct {
	Name          string       // Service name from compose
	Image         string       `yaml:"image"`
	ContainerName string       `yaml:"container_name"`
	Healthcheck   *Healthcheck `yaml:"healthcheck"`
	Deploy        *Deploy      `yaml:"deploy"`
}

// Healthcheck is the subset of a service healthcheck definition used for reporting
type Healthcheck struct {
	Test    StringOrSlice `yaml:"test"`
	Disable bool          `yaml:"disable"`
}

// Deploy represents deployment configuration
type Deploy struct {
	Replicas *int `yaml:"replicas"`
}

// StringOrSlice can be either a string or a slice of strings
type StringOrSlice []string

func (s *StringOrSlice) UnmarshalYAML(value *yaml.Node) error {
	var multi []string
	err := value.Decode(&multi)
	if err != nil {
		var single string
		err := value.Decode(&single)
		if err != nil {
			return err
		}
		*s = []string{single}
	} else {
		*s = multi
	}
	return nil
}

// HasHealthcheck reports whether the service declares an enabled healthcheck
func (s *ComposeService) HasHealthcheck() bool {
	if s.Healthcheck == nil || s.Healthcheck.Disable {
		return false
	}
	return len(s.Healthcheck.Test) > 0 && s.Healthcheck.Test[0] != "NONE"
}

// ParseComposeFile reads and parses a docker-compose.yaml file.
// Errors are load errors: a missing or malformed manifest cannot be fixed by retrying.
func ParseComposeFile(path string) (*ComposeFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, cwerrors.Load(path, fmt.Errorf("reading compose file: %w", err))
	}

	compose, err := Parse(data)
	if err != nil {
		return nil, cwerrors.Load(path, err)
	}
	return compose, nil
}

// Parse parses compose file contents
func Parse(data []byte) (*ComposeFile, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing compose file: %w", err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, fmt.Errorf("parsing compose file: document is empty")
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("parsing compose file: top level must be a mapping")
	}

	servicesNode := mappingValue(root, "services")
	if servicesNode == nil {
		return nil, fmt.Errorf("parsing compose file: no services section")
	}

	var compose ComposeFile
	if err := root.Decode(&compose); err != nil {
		return nil, fmt.Errorf("parsing compose file: %w", err)
	}
	if compose.Services == nil {
		compose.Services = make(map[string]*ComposeService)
	}

	switch {
	case servicesNode.Tag == "!!null":
		// "services:" with no entries
	case servicesNode.Kind == yaml.MappingNode:
		for i := 0; i+1 < len(servicesNode.Content); i += 2 {
			name := servicesNode.Content[i].Value
			compose.order = append(compose.order, name)
		}
	default:
		return nil, fmt.Errorf("parsing compose file: services must be a mapping")
	}

	// Set service names
	for _, name := range compose.order {
		service := compose.Services[name]
		if service == nil {
			service = &ComposeService{}
			compose.Services[name] = service
		}
		service.Name = name
	}

	return &compose, nil
}

// mappingValue returns the value node for key in a mapping node
func mappingValue(m *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return m.Content[i+1]
		}
	}
	return nil
}

// GetServiceNames returns all service names in declaration order
func (c *ComposeFile) GetServiceNames() []string {
	names := make([]string, len(c.order))
	copy(names, c.order)
	return names
}

// Source reads service names from a compose file on every call so edits
// between attempts are picked up.
type Source struct {
	Path string
}

// NewSource creates a service name source for the compose file at path
func NewSource(path string) *Source {
	return &Source{Path: path}
}

// ServiceNames returns the declared service names in order
func (s *Source) ServiceNames(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	compose, err := ParseComposeFile(s.Path)
	if err != nil {
		return nil, err
	}
	return compose.GetServiceNames(), nil
}
