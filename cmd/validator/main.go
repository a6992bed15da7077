package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
)

func main() {
	fs := flag.NewFlagSet("validator", flag.ExitOnError)

	cfg, err := parseConfig(fs, os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(2)
	}

	if err := run(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)

		if errors.Is(err, errRejected) {
			os.Exit(1)
		}
		os.Exit(3)
	}
}
