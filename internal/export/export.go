// Package export writes downloaded report byte streams to the local
// filesystem.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/hookview/dashboard/internal/view"
)

// Writer saves CSV reports under a download directory.
type Writer struct {
	dir string
}

// NewWriter creates the writer, making sure the directory exists.
func NewWriter(dir string) (*Writer, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating download directory: %w", err)
	}
	return &Writer{dir: dir}, nil
}

// Save implements view.ReportSaver. The file name carries the report kind
// and a timestamp; a short unique suffix avoids clobbering same-second
// exports.
func (w *Writer) Save(kind view.ReportKind, data []byte) (string, error) {
	prefix := "validation-report"
	if kind == view.ReportValidEvents {
		prefix = "valid-events"
	}

	name := fmt.Sprintf("%s-%s-%s.csv",
		prefix,
		time.Now().Format("20060102-150405"),
		uuid.New().String()[:8])
	path := filepath.Join(w.dir, name)

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("writing report file: %w", err)
	}
	return path, nil
}
