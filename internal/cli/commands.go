package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/vk/gridflow/internal/app"
	"github.com/vk/gridflow/internal/compiler"
	"github.com/vk/gridflow/internal/component"
)

func newCompileCommand(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compile",
		Short: "Compile a pipeline into a workflow document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := o.config()
			if err != nil {
				return err
			}
			a := app.NewApp(o.logW, cfg)
			wf, err := a.Compile(cmd.Context())
			if err != nil {
				return err
			}
			return a.WriteWorkflow(o.outW, wf, o.v.GetString("out"), o.v.GetString("format"))
		},
	}
	pipelineFlags(cmd.Flags())
	cmd.Flags().StringP("out", "o", "-", "Output path; the extension picks the format. '-' writes to stdout.")
	cmd.Flags().String("format", "json", "Format used for stdout: 'json' or 'yaml'.")
	return cmd
}

func newRunCommand(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a pipeline or a compiled workflow locally",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := o.config()
			if err != nil {
				return err
			}
			res, err := app.NewApp(o.logW, cfg).Run(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(o.outW, "run %s: %d tasks, %d artifacts\n", res.RunID, len(res.Tasks), len(res.Artifacts))
			return nil
		},
	}
	fs := cmd.Flags()
	pipelineFlags(fs)
	fs.StringP("workflow", "w", "", "Compiled workflow document to run.")
	fs.String("artifacts", ".gridflow/artifacts", "Root directory of the artifact store.")
	fs.String("run-id", "", "Run identifier; a random UUID when empty.")
	fs.Int("workers", 0, "Number of concurrent workers. 0 uses the number of CPUs.")
	fs.Bool("fail-fast", false, "Cancel every running task on the first failure.")
	fs.Int("healthcheck-port", 0, "Port serving /health and /metrics. 0 is disabled.")
	fs.String("events-url", "", "socket.io endpoint receiving lifecycle events.")
	fs.String("events-namespace", "/", "socket.io namespace for lifecycle events.")
	fs.String("events-name", "gridflow", "socket.io event name for lifecycle events.")
	fs.Duration("events-timeout", 10*time.Second, "How long to wait for the socket.io connection.")
	return cmd
}

func newComponentsCommand(o *options) *cobra.Command {
	var exportDir string
	cmd := &cobra.Command{
		Use:   "components",
		Short: "List the built-in components",
		Long: `List the built-in components. With --export, write each one as an HCL
component block into its own file instead, so pipeline files can be loaded
without the built-in catalog.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := app.NewApp(o.logW, &app.Config{
				LogFormat: o.v.GetString("log-format"),
				LogLevel:  o.v.GetString("log-level"),
			})
			if exportDir != "" {
				paths, err := a.ExportComponents(cmd.Context(), exportDir)
				if err != nil {
					return err
				}
				for _, p := range paths {
					fmt.Fprintln(o.outW, p)
				}
				return nil
			}

			tw := tabwriter.NewWriter(o.outW, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "COMPONENT\tINPUTS\tOUTPUTS")
			for _, spec := range a.Registry().Components() {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", spec.Name, describeInputs(spec), describeOutputs(spec))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&exportDir, "export", "", "write one <component>.hcl file per component into this directory")
	return cmd
}

func describeInputs(spec *component.Spec) string {
	parts := make([]string, len(spec.Inputs))
	for i, in := range spec.Inputs {
		p := fmt.Sprintf("%s:%s", in.Name, in.Type)
		if in.Kind == component.Artifact {
			p = "@" + p
		}
		if in.Optional() {
			p += "?"
		}
		parts[i] = p
	}
	return strings.Join(parts, " ")
}

func describeOutputs(spec *component.Spec) string {
	parts := make([]string, len(spec.Outputs))
	for i, out := range spec.Outputs {
		parts[i] = fmt.Sprintf("%s:%s", out.Name, out.Type)
	}
	return strings.Join(parts, " ")
}

func newValidateCommand(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "validate WORKFLOW",
		Short: "Check a compiled workflow document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			wf, err := compiler.ReadFile(args[0])
			if err != nil {
				return err
			}
			a := app.NewApp(o.logW, &app.Config{
				LogFormat: o.v.GetString("log-format"),
				LogLevel:  o.v.GetString("log-level"),
			})
			if err := a.Validate(cmd.Context(), wf); err != nil {
				return err
			}
			fmt.Fprintf(o.outW, "workflow '%s' is valid (%d tasks, %s)\n", wf.Name, len(wf.Tasks), wf.Fingerprint)
			return nil
		},
	}
}
