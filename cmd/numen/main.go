package main

import (
	"fmt"
	"os"

	"github.com/funvibe/numen/pkg/cli"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			if os.Getenv("NUMEN_DEBUG") == "1" {
				panic(r)
			}
			fmt.Fprintf(os.Stderr, "Internal error: %v\n", r)
			fmt.Fprintln(os.Stderr, "This is a bug. Please report it.")
			os.Exit(1)
		}
	}()

	cli.Run()
}
