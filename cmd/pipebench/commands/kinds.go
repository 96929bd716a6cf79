package commands

import (
	"fmt"

	"github.com/jacoelho/syncpipe/internal/bench"
	"github.com/spf13/cobra"
)

var kindsCmd = &cobra.Command{
	Use:   "kinds",
	Short: "List the pipe kinds that can be benchmarked",
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, k := range bench.Kinds() {
			fmt.Fprintln(cmd.OutOrStdout(), k)
		}
		return nil
	},
}
