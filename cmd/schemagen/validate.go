package main

import (
	"context"
	"fmt"
	"io"
	"os"

	json "github.com/goccy/go-json"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/reoring/schemagen"
	"github.com/reoring/schemagen/validator"
)

type validating interface {
	ValidateJSON(ctx context.Context, data []byte, opts ...validator.CallOption) (any, error)
	Dump(value any, opts validator.SerializeOptions) (any, error)
}

// errInvalid is returned after the issues of invalid input were printed.
var errInvalid = errors.New("input is invalid")

func (a *app) validateCmd() *cobra.Command {
	var (
		strict      bool
		byAlias     bool
		excludeNone bool
		quiet       bool
	)
	cmd := &cobra.Command{
		Use:   "validate TYPE [FILE]",
		Short: "Validate JSON input against a record or type expression",
		Long: `Validate the JSON document in FILE, or stdin when FILE is "-" or missing,
against TYPE. Valid input is printed back in its serialized form; issues are
printed one per line and the command exits with status 1.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var in io.Reader = cmd.InOrStdin()
			if len(args) == 2 && args[1] != "-" {
				f, err := os.Open(args[1])
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}
			data, err := io.ReadAll(in)
			if err != nil {
				return errors.Wrap(err, "read input")
			}

			d, err := a.declared(args[:1])
			if err != nil {
				return err
			}
			t, err := a.target(d, args[0], a.options())
			if err != nil {
				return err
			}
			v, ok := t.(validating)
			if !ok {
				return errors.Errorf("%s cannot validate", t.Name())
			}
			var callOpts []validator.CallOption
			if cmd.Flags().Changed("strict") {
				callOpts = append(callOpts, validator.Strict(strict))
			}
			value, err := v.ValidateJSON(cmd.Context(), data, callOpts...)
			if iss, ok := schemagen.AsIssues(err); ok {
				printIssues(cmd.ErrOrStderr(), t.Name(), iss)
				return errInvalid
			}
			if err != nil {
				return err
			}
			if quiet {
				return nil
			}
			plain, err := v.Dump(value, validator.SerializeOptions{JSON: true, ByAlias: byAlias, ExcludeNone: excludeNone})
			if err != nil {
				return err
			}
			out, err := json.MarshalIndent(plain, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
	f := cmd.Flags()
	f.BoolVar(&strict, "strict", false, "validate in strict mode (default from config)")
	f.BoolVar(&byAlias, "by-alias", false, "print valid input keyed by field aliases")
	f.BoolVar(&excludeNone, "exclude-none", false, "omit null fields from the printed value")
	f.BoolVarP(&quiet, "quiet", "q", false, "print nothing for valid input")
	return cmd
}
