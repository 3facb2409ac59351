package main

import (
	"fmt"
	"os"

	"reelsmith/cmd"
	"reelsmith/types"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(types.ExitCode(err))
	}
}
