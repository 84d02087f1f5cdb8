package main

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/reoring/schemagen"
	"github.com/reoring/schemagen/jsonschema"
)

func (a *app) jsonSchemaCmd() *cobra.Command {
	var (
		mode        string
		refTemplate string
		byAlias     bool
		strict      bool
	)
	cmd := &cobra.Command{
		Use:   "jsonschema TYPE...",
		Short: "Render JSON Schema for records or type expressions",
		Long: `Render the JSON Schema of each TYPE. With several TYPEs the schemas share
one $defs and the document accepts any of them.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			js := a.cfg.JSONSchema
			if cmd.Flags().Changed("mode") {
				js.Mode = mode
			}
			if cmd.Flags().Changed("ref-template") {
				js.RefTemplate = refTemplate
			}
			if cmd.Flags().Changed("by-alias") {
				js.ByAlias = byAlias
			}
			if cmd.Flags().Changed("strict") {
				js.Strict = strict
			}
			m := jsonschema.Mode(js.Mode)
			if m != jsonschema.ModeValidation && m != jsonschema.ModeSerialization {
				return errors.Errorf("--mode must be validation or serialization, got: %s", js.Mode)
			}

			d, err := a.declared(args)
			if err != nil {
				return err
			}
			opts := a.options(schemagen.WithJSONSchemaOptions(
				jsonschema.WithRefTemplate(js.RefTemplate),
				jsonschema.ByAlias(js.ByAlias),
				jsonschema.Strict(js.Strict),
			))
			targets := make([]schemagen.Target, 0, len(args))
			for _, name := range args {
				t, err := a.target(d, name, opts)
				if err != nil {
					return err
				}
				targets = append(targets, t)
			}

			var doc map[string]any
			if len(targets) == 1 {
				r, ok := targets[0].(interface {
					JSONSchema(jsonschema.Mode) (map[string]any, error)
				})
				if !ok {
					return errors.Errorf("%s cannot be rendered", targets[0].Name())
				}
				if doc, err = r.JSONSchema(m); err != nil {
					return err
				}
			} else {
				roots, defs, err := schemagen.Definitions(m, targets, opts...)
				if err != nil {
					return err
				}
				anyOf := make([]any, len(targets))
				for i, t := range targets {
					anyOf[i] = roots[t.Name()]
				}
				doc = map[string]any{"anyOf": anyOf}
				if len(defs) > 0 {
					doc["$defs"] = defs
				}
			}
			out, err := jsonschema.Marshal(doc)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&mode, "mode", string(jsonschema.ModeValidation), "validation or serialization")
	f.StringVar(&refTemplate, "ref-template", jsonschema.DefaultRefTemplate, "template for $ref values; must contain {model}")
	f.BoolVar(&byAlias, "by-alias", true, "use field aliases as property names")
	f.BoolVar(&strict, "strict", false, "fail instead of omitting parts that have no JSON Schema")
	return cmd
}
