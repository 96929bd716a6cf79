// pipebench measures throughput of syncpipe against other in-memory and OS
// pipes.
//
// Usage:
//
//	pipebench run --total 1048576 --kind syncpipe --kind os-pipe
//	pipebench run --config bench.yaml --format yaml
//	pipebench kinds
package main

import (
	"os"

	"github.com/jacoelho/syncpipe/cmd/pipebench/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
