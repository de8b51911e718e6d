// Package testutil holds fakes shared by package tests that wire the poller
// end to end.
package testutil

import (
	"context"
	"fmt"
	"sync"

	"composewait/internal/container"
)

// MockContainer is the runtime state served for one container id
type MockContainer struct {
	ID      string
	Service string
	Status  string
	Health  string
}

// MockQuerier is an in-memory container.Querier
type MockQuerier struct {
	mu         sync.RWMutex
	containers map[string]*MockContainer
	order      []string
	calls      map[string][]interface{}
	errors     map[string]error
}

// NewMockQuerier creates an empty mock querier
func NewMockQuerier() *MockQuerier {
	return &MockQuerier{
		containers: make(map[string]*MockContainer),
		calls:      make(map[string][]interface{}),
		errors:     make(map[string]error),
	}
}

// AddContainer registers a container for service
func (m *MockQuerier) AddContainer(service, id, status, health string) *MockQuerier {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.containers[id]; !ok {
		m.order = append(m.order, id)
	}
	m.containers[id] = &MockContainer{ID: id, Service: service, Status: status, Health: health}
	return m
}

// SetState changes the status and health of an existing container
func (m *MockQuerier) SetState(id, status, health string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.containers[id]; ok {
		c.Status = status
		c.Health = health
	}
}

// SetError sets an error to be returned for a specific method
func (m *MockQuerier) SetError(method string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[method] = err
}

// GetCalls returns the calls made to a specific method
func (m *MockQuerier) GetCalls(method string) []interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.calls[method]
}

// TotalCalls returns the number of calls across all methods
func (m *MockQuerier) TotalCalls() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, c := range m.calls {
		n += len(c)
	}
	return n
}

func (m *MockQuerier) record(method string, arg string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls[method] = append(m.calls[method], arg)
	return m.errors[method]
}

// ContainerIDs returns the ids registered for service
func (m *MockQuerier) ContainerIDs(_ context.Context, service string) ([]string, error) {
	if err := m.record("ContainerIDs", service); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	var ids []string
	for _, id := range m.order {
		if m.containers[id].Service == service {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// RunState returns the registered status
func (m *MockQuerier) RunState(_ context.Context, id string) (string, error) {
	if err := m.record("RunState", id); err != nil {
		return "", err
	}
	c, err := m.get(id)
	if err != nil {
		return "", err
	}
	return c.Status, nil
}

// HealthState returns the registered health, or container.NoHealthcheck if empty
func (m *MockQuerier) HealthState(_ context.Context, id string) (string, error) {
	if err := m.record("HealthState", id); err != nil {
		return "", err
	}
	c, err := m.get(id)
	if err != nil {
		return "", err
	}
	if c.Health == "" {
		return container.NoHealthcheck, nil
	}
	return c.Health, nil
}

func (m *MockQuerier) get(id string) (*MockContainer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.containers[id]
	if !ok {
		return nil, &container.ContainerError{
			Type:        container.ErrorTypeContainerNotFound,
			ContainerID: id,
			Message:     fmt.Sprintf("No such container: %s", id),
		}
	}
	return c, nil
}

var _ container.Querier = (*MockQuerier)(nil)
