// Package taskio reads task sets from files and writes simulation verdicts.
package taskio

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/sarchlab/dmsched/task"
)

// ErrFormat is returned for input that is not a valid task list.
var ErrFormat = errors.New("taskio: invalid format")

// ReadCSV reads one task per line as "execution_time,period,deadline".
// Blank lines, including lines of only spaces or tabs, are skipped. Errors
// name the offending line of the input.
//
// Task IDs count task lines only, so a blank line does not use up an ID:
// the third line of "1,4,4\n\n2,6,6" is task T1.
func ReadCSV(r io.Reader) (task.Set, error) {
	blanked, err := blankWhitespaceLines(r)
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(blanked)
	reader.FieldsPerRecord = 3
	reader.TrimLeadingSpace = true

	var specs []task.Spec

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				return nil, fmt.Errorf("%w on line %d: %v",
					ErrFormat, parseErr.StartLine, parseErr.Err)
			}

			return nil, fmt.Errorf("taskio: read: %w", err)
		}

		line, _ := reader.FieldPos(0)

		spec, err := task.ParseSpec(
			strings.TrimSpace(record[0]),
			strings.TrimSpace(record[1]),
			strings.TrimSpace(record[2]),
		)
		if err != nil {
			return nil, fmt.Errorf("%w on line %d: %v", ErrFormat, line, err)
		}

		if err := spec.Validate(); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		specs = append(specs, spec)
	}

	return task.NewSet(specs...)
}

// blankWhitespaceLines empties lines that hold only white space, which the
// csv reader then skips. Line numbers are unchanged.
func blankWhitespaceLines(r io.Reader) (io.Reader, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var b strings.Builder

	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) != "" {
			b.WriteString(line)
		}

		b.WriteByte('\n')
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("taskio: read: %w", err)
	}

	return strings.NewReader(b.String()), nil
}
