package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sarchlab/dmsched/sched"
	"github.com/sarchlab/dmsched/taskio"
)

func newHyperperiodCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hyperperiod <input_file>",
		Short: "Print the hyperperiod of a task set",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			set, err := taskio.Load(args[0])
			if err != nil {
				return err
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), sched.Hyperperiod(set))

			return err
		},
	}
}
