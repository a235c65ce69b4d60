// Package main provides reviewctl, a command line client for the Steam
// reviews services. It runs the same services as the server in-process.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
