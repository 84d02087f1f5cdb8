package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/reoring/schemagen/validator"
)

// printIssues writes one line per issue:
//
//	✗ /pet/lives  too_big  Input should be less than or equal to 9
func printIssues(w io.Writer, target string, iss validator.Issues) {
	header := color.New(color.FgRed, color.Bold)
	path := color.New(color.FgCyan)
	code := color.New(color.FgYellow)

	noun := "issues"
	if len(iss) == 1 {
		noun = "issue"
	}
	header.Fprintf(w, "%d validation %s for %s\n", len(iss), noun, target)
	for _, is := range iss {
		p := is.Path
		if p == "" {
			p = "/"
		}
		fmt.Fprint(w, "  ✗ ")
		path.Fprint(w, p)
		fmt.Fprint(w, "  ")
		code.Fprint(w, is.Code)
		fmt.Fprintf(w, "  %s\n", is.Message)
		if is.Hint != "" {
			fmt.Fprintf(w, "      → %s\n", is.Hint)
		}
	}
}
