// Package main provides the iotsend command-line utility.
//
// iotsend composes a single IoT message (key:value header properties
// plus a binary or text payload) and streams it to the hub service for
// delivery to the cloud.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
