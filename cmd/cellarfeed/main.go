package main

import (
	"fmt"
	"os"

	"github.com/ib-77/cellarfeed/cmd/cellarfeed/cmd"
)

func main() {
	if err := cmd.NewRootCommand(os.Stdin, os.Stdout, os.Stderr).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
