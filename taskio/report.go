package taskio

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/sarchlab/dmsched/sched"
)

// WriteResult prints "1" and the comma-separated preemption counts for a
// schedulable task set, and "0" followed by an empty line otherwise.
func WriteResult(w io.Writer, r sched.Result) error {
	if !r.Schedulable() {
		_, err := io.WriteString(w, "0\n\n")
		return err
	}

	counts := make([]string, len(r.Preemptions))
	for i, c := range r.Preemptions {
		counts[i] = strconv.Itoa(c)
	}

	_, err := fmt.Fprintf(w, "1\n%s\n", strings.Join(counts, ","))

	return err
}
