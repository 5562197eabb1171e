// Package main provides the entry point for the atelier CLI.
package main

import "os"

// version is stamped by the release build.
var version = "dev"

func main() {
	if err := Execute(); err != nil {
		os.Exit(1)
	}
}
