package logger

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
)

// ActionsFormatter renders entries as GitHub Actions workflow commands so
// warnings and errors are annotated in the job summary. Info entries are
// printed verbatim.
type ActionsFormatter struct{}

// Format implements logrus.Formatter
func (f *ActionsFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	var b bytes.Buffer

	switch entry.Level {
	case logrus.DebugLevel, logrus.TraceLevel:
		b.WriteString("::debug::")
	case logrus.WarnLevel:
		b.WriteString("::warning::")
	case logrus.ErrorLevel, logrus.FatalLevel, logrus.PanicLevel:
		b.WriteString("::error::")
	}

	msg := entry.Message
	if entry.Level != logrus.InfoLevel {
		// Workflow commands are single-line; escape like @actions/core does.
		msg = escapeCommandData(msg)
	}
	b.WriteString(msg)

	if len(entry.Data) > 0 {
		keys := make([]string, 0, len(entry.Data))
		for k := range entry.Data {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, " %s=%v", k, entry.Data[k])
		}
	}

	b.WriteByte('\n')
	return b.Bytes(), nil
}

func escapeCommandData(s string) string {
	s = strings.ReplaceAll(s, "%", "%25")
	s = strings.ReplaceAll(s, "\r", "%0D")
	s = strings.ReplaceAll(s, "\n", "%0A")
	return s
}
