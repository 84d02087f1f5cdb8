package main

import (
	"strings"

	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/reoring/schemagen"
	"github.com/reoring/schemagen/declfile"
	"github.com/reoring/schemagen/generics"
	"github.com/reoring/schemagen/i18n"
	"github.com/reoring/schemagen/internal/config"
	"github.com/reoring/schemagen/typeexpr"
	"github.com/reoring/schemagen/validator"
)

type app struct {
	configFile string
	declFile   string
	goSource   string
	noColor    bool

	cfg   *config.Config
	log   *zap.Logger
	cache *generics.Cache
}

func newApp() *app { return &app{} }

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "schemagen",
		Short: "Build core schemas and JSON Schemas from record declarations",
		Long: `schemagen reads records from a YAML declaration file (--file) or from the
struct types of a Go package (--go-source) and prints their core schema,
renders JSON Schema, or validates JSON input against them.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}
	pf := root.PersistentFlags()
	pf.StringVar(&a.configFile, "config", "", "config file (default ./schemagen.yaml)")
	pf.StringVarP(&a.declFile, "file", "f", "", "YAML declaration file")
	pf.StringVar(&a.goSource, "go-source", "", "directory of a Go package whose struct types are declared")
	pf.BoolVar(&a.noColor, "no-color", false, "disable colored output")

	root.AddCommand(a.coreCmd())
	root.AddCommand(a.jsonSchemaCmd())
	root.AddCommand(a.validateCmd())
	root.AddCommand(versionCmd())
	return root
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	if a.noColor {
		color.NoColor = true
	}
	cfg, err := config.Load(a.configFile)
	if err != nil {
		return err
	}
	log, err := cfg.Logger()
	if err != nil {
		return err
	}
	a.cfg, a.log = cfg, log
	a.cache = generics.NewCache(cfg.Generics.CacheSize, generics.WithLogger(log))
	i18n.SetLanguage(cfg.Language)
	log.Debug("config loaded", zap.String("command", cmd.Name()), zap.String("language", cfg.Language))
	return nil
}

// declared loads the declarations. With --go-source, names are the struct
// types to declare.
func (a *app) declared(names []string) (*declfile.Declared, error) {
	var f *declfile.File
	var err error
	switch {
	case a.declFile != "" && a.goSource != "":
		return nil, errors.New("--file and --go-source are exclusive")
	case a.declFile != "":
		f, err = declfile.Load(a.declFile)
	case a.goSource != "":
		f, err = declfile.FromGoSource(a.goSource, names...)
	default:
		return nil, errors.New("one of --file or --go-source is required")
	}
	if err != nil {
		return nil, err
	}
	d, err := f.Declare()
	if err != nil {
		return nil, err
	}
	a.log.Debug("declarations loaded", zap.String("module", f.Module), zap.Strings("records", d.Order))
	return d, nil
}

func (a *app) options(extra ...schemagen.Option) []schemagen.Option {
	v := a.cfg.Validation
	opts := []schemagen.Option{
		schemagen.WithLogger(a.log),
		schemagen.WithGenericsCache(a.cache),
		schemagen.WithValidatorOptions(
			validator.DuplicateKeys(v.DuplicateKeys),
			validator.MaxDepth(v.MaxDepth),
			validator.MaxBytes(v.MaxBytes),
			validator.StrictByDefault(v.Strict),
		),
	}
	return append(opts, extra...)
}

// target resolves name to a Model when it names a record or a
// parametrization of one, and to an Adapter for any other type source.
func (a *app) target(d *declfile.Declared, name string, opts []schemagen.Option) (schemagen.Target, error) {
	name = strings.TrimSpace(name)
	if rec, ok := d.Records[name]; ok {
		return schemagen.NewModel(rec, opts...), nil
	}
	e, err := d.Type(name)
	if err != nil {
		return nil, errors.Wrapf(err, "target %q", name)
	}
	switch x := e.(type) {
	case *typeexpr.Record:
		return schemagen.NewModel(x, opts...), nil
	case *typeexpr.Parametrized:
		return schemagen.Parametrize(x.Origin, x.Args, opts...)
	}
	return schemagen.NewAdapter(e, append(opts, schemagen.WithNamespace(d.Namespace))...), nil
}
