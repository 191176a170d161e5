package main

import (
	"fmt"
	"os"

	"github.com/BikS2013/ppt2desc/cmd/ppt2desc/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
