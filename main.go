// main.go
//
// Entry point; the run and sweep subcommands live in cmd/root.go

package main

import (
	"github.com/incident-sim/incident-sim/cmd"
)

func main() {
	cmd.Execute()
}
