package hcl

import (
	"context"
	"errors"
	"fmt"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/vk/gridflow/internal/component"
	"github.com/vk/gridflow/internal/ctxlog"
	"github.com/vk/gridflow/internal/fsutil"
	"github.com/vk/gridflow/internal/pipeline"
)

// Catalog resolves component names that no file declares.
type Catalog interface {
	Component(name string) (*component.Spec, bool)
}

// Load parses the .hcl files found under paths and builds the pipeline they
// describe. Paths may be files or directories. Components declared in the
// files take precedence over those in catalog, which may be nil.
func Load(ctx context.Context, catalog Catalog, paths ...string) (*pipeline.Graph, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path_count", len(paths))

	files, err := fsutil.FindFilesByExtension(paths, ".hcl")
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no .hcl files found in %v", paths)
	}
	logger.Debug("Discovered HCL files.", "count", len(files))

	parser := hclparse.NewParser()
	var (
		head  *pipelineBlock
		tasks []*taskBlock
	)
	declared := make(map[string]*component.Spec)

	for _, file := range files {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse HCL file %s: %w", file, diags)
		}

		var root fileRoot
		if diags := gohcl.DecodeBody(hclFile.Body, nil, &root); diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode HCL file %s: %w", file, diags)
		}

		for _, p := range root.Pipelines {
			if head != nil {
				return nil, fmt.Errorf("%s: pipeline '%s' already defined as '%s'", file, p.Name, head.Name)
			}
			head = p
		}
		for _, c := range root.Components {
			if _, dup := declared[c.Name]; dup {
				return nil, fmt.Errorf("%s: component '%s' declared twice", file, c.Name)
			}
			spec, err := translateComponent(ctx, c)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", file, err)
			}
			declared[c.Name] = spec
		}
		tasks = append(tasks, root.Tasks...)
	}
	if head == nil {
		return nil, errors.New("no pipeline block found")
	}

	b := pipeline.NewBuilder(head.Name, pipeline.WithDescription(head.Description))
	for _, t := range tasks {
		spec, ok := declared[t.Component]
		if !ok && catalog != nil {
			spec, ok = catalog.Component(t.Component)
		}
		if !ok {
			return nil, fmt.Errorf("task '%s': unknown component '%s'", t.ID, t.Component)
		}

		bindings, err := translateArguments(ctx, t)
		if err != nil {
			return nil, err
		}
		if _, err := b.Instantiate(t.ID, spec, bindings); err != nil {
			return nil, err
		}
	}

	g := b.Graph()
	logger.Debug("HCL loading complete.", "pipeline", g.Name(), "components", len(declared), "tasks", len(tasks))
	return g, nil
}
