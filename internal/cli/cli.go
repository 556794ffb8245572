package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/vk/gridflow/internal/app"
)

// options carries what every command needs: where to write and the viper
// instance flags, env and config file are merged into.
type options struct {
	outW    io.Writer
	logW    io.Writer
	v       *viper.Viper
	cfgFile string
}

// NewRootCommand builds the gridflow command tree. Results go to outW and
// logs to logW.
func NewRootCommand(outW, logW io.Writer) *cobra.Command {
	o := &options{outW: outW, logW: logW, v: viper.New()}
	o.v.SetEnvPrefix("GRIDFLOW")
	o.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	o.v.AutomaticEnv()

	root := &cobra.Command{
		Use:   "gridflow",
		Short: "Compile and run typed ML pipelines",
		Long: `gridflow wires pipeline components into a task graph from their
output-to-input references, compiles it into a deterministic workflow
document, and runs that document locally over a filesystem artifact store.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return o.load(cmd)
		},
	}
	root.SetOut(outW)
	root.SetErr(logW)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError(err)
	})

	pf := root.PersistentFlags()
	pf.StringVar(&o.cfgFile, "config", "", "YAML config file with default flag values.")
	pf.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	pf.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")

	root.AddCommand(
		newCompileCommand(o),
		newRunCommand(o),
		newComponentsCommand(o),
		newValidateCommand(o),
	)
	return root
}

// load merges the config file, env and flags of cmd into viper.
func (o *options) load(cmd *cobra.Command) error {
	slog.Debug("CLI parser started.", "command", cmd.Name())
	if o.cfgFile != "" {
		o.v.SetConfigFile(o.cfgFile)
		if err := o.v.ReadInConfig(); err != nil {
			return usageError(fmt.Errorf("reading config %s: %w", o.cfgFile, err))
		}
	}
	if err := o.v.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	switch o.v.GetString("log-format") {
	case "text", "json":
	default:
		return usageError(errors.New("invalid log-format: must be 'text' or 'json'"))
	}
	switch o.v.GetString("log-level") {
	case "debug", "info", "warn", "error":
	default:
		return usageError(errors.New("invalid log-level: must be 'debug', 'info', 'warn', or 'error'"))
	}
	return nil
}

// pipelineFlags are shared by every command that builds a pipeline.
func pipelineFlags(fs *pflag.FlagSet) {
	fs.StringP("pipeline", "p", "", "Path to a pipeline .hcl file or a directory of .hcl files.")
	fs.String("preset", "", "Name of a built-in pipeline (insurance, housing).")
	fs.String("source", "", "Dataset location replacing the preset's default.")
}

// config builds the app configuration from the merged settings.
func (o *options) config() (*app.Config, error) {
	cfg, err := app.NewConfig(app.Config{
		PipelinePath:    o.v.GetString("pipeline"),
		Preset:          o.v.GetString("preset"),
		Source:          o.v.GetString("source"),
		WorkflowPath:    o.v.GetString("workflow"),
		ArtifactRoot:    o.v.GetString("artifacts"),
		RunID:           o.v.GetString("run-id"),
		WorkerCount:     o.v.GetInt("workers"),
		FailFast:        o.v.GetBool("fail-fast"),
		HealthcheckPort: o.v.GetInt("healthcheck-port"),
		EventsURL:       o.v.GetString("events-url"),
		EventsNamespace: o.v.GetString("events-namespace"),
		EventsName:      o.v.GetString("events-name"),
		EventsTimeout:   o.v.GetDuration("events-timeout"),
		LogFormat:       o.v.GetString("log-format"),
		LogLevel:        o.v.GetString("log-level"),
	})
	if err != nil {
		return nil, usageError(err)
	}
	slog.Debug("CLI parser finished successfully.", "config", cfg)
	return cfg, nil
}

// Execute runs the command tree with args.
func Execute(ctx context.Context, outW, logW io.Writer, args []string) error {
	root := NewRootCommand(outW, logW)
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}
