package extract_data

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/vk/gridflow/internal/component"
	"github.com/vk/gridflow/internal/ctxlog"
	"github.com/vk/gridflow/internal/frame"
	"github.com/vk/gridflow/internal/fsutil"
	"github.com/vk/gridflow/internal/registry"
	"github.com/zclconf/go-cty/cty"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// httpClient is shared by every extraction to reuse TCP connections.
var httpClient = &http.Client{Timeout: 5 * time.Minute}

var emptyList = cty.ListValEmpty(cty.String)
var emptyString = cty.StringVal("")

// Spec declares the extract_data component.
var Spec = component.MustDeclare("extract_data",
	[]component.Input{
		{Name: "source", Kind: component.Literal, Type: "string", Description: "Path or http(s) URL of the CSV dataset."},
		{Name: "pre_command", Kind: component.Literal, Type: "list(string)", Default: &emptyList, Description: "Command run before reading the source, e.g. a data version pull."},
		{Name: "work_dir", Kind: component.Literal, Type: "string", Default: &emptyString, Description: "Directory for pre_command and relative sources."},
	},
	[]component.Output{
		{Name: "dataset", Type: component.TabularCSV, Description: "The raw tabular dataset."},
	},
	OnRunExtractData,
	component.WithDescription("Fetches a CSV dataset and publishes it unchanged."),
)

// OnRunExtractData is the body of the extract_data component.
func OnRunExtractData(ctx context.Context, inv *component.Invocation) error {
	logger := ctxlog.FromContext(ctx)

	source, err := inv.String("source")
	if err != nil {
		return err
	}
	workDir, err := inv.String("work_dir")
	if err != nil {
		return err
	}
	command, err := inv.Strings("pre_command")
	if err != nil {
		return err
	}
	out, err := inv.Output("dataset")
	if err != nil {
		return err
	}

	if len(command) > 0 {
		if err := runPreCommand(ctx, workDir, command); err != nil {
			return err
		}
	}

	if isURL(source) {
		err = download(ctx, source, out)
	} else {
		if workDir != "" && !filepath.IsAbs(source) {
			source = filepath.Join(workDir, source)
		}
		_, err = fsutil.CopyFile(out, source)
	}
	if err != nil {
		return fmt.Errorf("failed to extract '%s': %w", source, err)
	}

	tbl, err := frame.ReadTable(out)
	if err != nil {
		return fmt.Errorf("source '%s' is not a usable dataset: %w", source, err)
	}
	logger.Info("✓ Data extracted", "source", source, "rows", tbl.Rows(), "columns", len(tbl.Header))
	return nil
}

func runPreCommand(ctx context.Context, dir string, command []string) error {
	logger := ctxlog.FromContext(ctx)
	logger.Info("Running pre-command.", "command", strings.Join(command, " "))

	cmd := exec.CommandContext(ctx, command[0], command[1:]...)
	cmd.Dir = dir
	output, err := cmd.CombinedOutput()
	logger.Debug("Pre-command finished.", "output", string(output))
	if err != nil {
		return fmt.Errorf("pre-command '%s' failed: %w: %s", command[0], err, strings.TrimSpace(string(output)))
	}
	return nil
}

func isURL(s string) bool {
	u, err := url.Parse(s)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func download(ctx context.Context, source, dst string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("download failed with status %s", resp.Status)
	}

	f, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		return fmt.Errorf("failed to read response body: %w", err)
	}
	return f.Close()
}

// Register registers the component with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterComponent(Spec)
}
