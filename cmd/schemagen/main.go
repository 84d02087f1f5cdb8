// Command schemagen loads record declarations from a YAML declaration file
// or from Go struct types and prints their core schema or JSON Schema, or
// validates input against them.
package main

import (
	"errors"
	"os"

	"github.com/fatih/color"
)

var (
	// Version information - set at build time
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func main() {
	root := newApp().rootCmd()
	if err := root.Execute(); err != nil {
		if !errors.Is(err, errInvalid) {
			color.New(color.FgRed, color.Bold).Fprintln(os.Stderr, "error:", err)
		}
		os.Exit(1)
	}
}
