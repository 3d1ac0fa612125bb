package taskio

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sarchlab/dmsched/task"
)

// Load reads a task file. The extension picks the format: ".yaml" and
// ".yml" are YAML, ".json" is JSON, and anything else is CSV.
func Load(path string) (task.Set, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("taskio: %w", err)
	}
	defer f.Close()

	set, err := readerFor(path)(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return set, nil
}

func readerFor(path string) func(io.Reader) (task.Set, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ReadYAML
	case ".json":
		return ReadJSON
	default:
		return ReadCSV
	}
}
