// Command dmsched decides whether a periodic task set is schedulable under
// preemptive deadline-monotonic scheduling.
package main

import "github.com/sarchlab/dmsched/cmd/dmsched/cmd"

func main() {
	cmd.Execute()
}
