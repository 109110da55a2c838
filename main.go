// Package main is the entry point for the netkit network subsystem daemon.
package main

import (
	"fmt"
	"os"

	"firestige.xyz/netkit/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
