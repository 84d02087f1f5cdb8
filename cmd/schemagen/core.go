package main

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/reoring/schemagen/core"
)

func (a *app) coreCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "core TYPE...",
		Short: "Print the core schema of records or type expressions",
		Long: `Print the core schema each TYPE builds to. TYPE is a declared record name
or type source such as "list[Cat]" or "Box[int]".`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dump := core.DumpJSON
			switch format {
			case "json":
			case "yaml":
				dump = core.DumpYAML
			default:
				return errors.Errorf("--format must be json or yaml, got: %s", format)
			}
			d, err := a.declared(args)
			if err != nil {
				return err
			}
			opts := a.options()
			for i, name := range args {
				t, err := a.target(d, name, opts)
				if err != nil {
					return err
				}
				s, err := t.CoreSchema()
				if err != nil {
					return errors.Wrapf(err, "build %s", name)
				}
				out, err := dump(s)
				if err != nil {
					return err
				}
				if i > 0 && format == "yaml" {
					fmt.Fprintln(cmd.OutOrStdout(), "---")
				}
				fmt.Fprintln(cmd.OutOrStdout(), strings.TrimRight(string(out), "\n"))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "json", "output format: json or yaml")
	return cmd
}
