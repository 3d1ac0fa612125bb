package taskio

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/sarchlab/dmsched/task"
	"github.com/sarchlab/dmsched/timing"
)

// File is the document layout of YAML and JSON task files.
type File struct {
	Tasks []task.Spec `json:"tasks" yaml:"tasks"`
}

type yamlTime struct {
	timing.VTime
}

func (t *yamlTime) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: expected a number", node.Line)
	}

	v, err := timing.Parse(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}

	t.VTime = v

	return nil
}

type yamlTask struct {
	ExecutionTime yamlTime `yaml:"execution_time"`
	Period        yamlTime `yaml:"period"`
	Deadline      yamlTime `yaml:"deadline"`
}

type yamlFile struct {
	Tasks []yamlTask `yaml:"tasks"`
}

// ReadYAML reads a document of the form
//
//	tasks:
//	  - execution_time: 1
//	    period: 4
//	    deadline: 4
func ReadYAML(r io.Reader) (task.Set, error) {
	var doc yamlFile

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	if err := dec.Decode(&doc); err != nil && err != io.EOF {
		return nil, fmt.Errorf("%w: %v", ErrFormat, err)
	}

	specs := make([]task.Spec, len(doc.Tasks))
	for i, t := range doc.Tasks {
		specs[i] = task.Spec{
			ExecutionTime: t.ExecutionTime.VTime,
			Period:        t.Period.VTime,
			Deadline:      t.Deadline.VTime,
		}
	}

	return task.NewSet(specs...)
}

// ReadJSON reads a File encoded as JSON.
func ReadJSON(r io.Reader) (task.Set, error) {
	var doc File

	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()

	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFormat, err)
	}

	return task.NewSet(doc.Tasks...)
}
