package main

import (
	"fmt"
	"os"
)

func main() {
	rootCommand := getRootCommand()
	if err := rootCommand.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
