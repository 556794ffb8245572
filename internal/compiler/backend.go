package compiler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/vk/gridflow/internal/fsutil"
	"gopkg.in/yaml.v3"
)

// Backend serialises workflows in one document format.
type Backend interface {
	Format() string
	Encode(w io.Writer, wf *Workflow) error
	Decode(r io.Reader) (*Workflow, error)
}

// JSONBackend writes indented JSON.
type JSONBackend struct{}

// Format implements Backend.
func (JSONBackend) Format() string { return "json" }

// Encode implements Backend.
func (JSONBackend) Encode(w io.Writer, wf *Workflow) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(wf); err != nil {
		return fmt.Errorf("encoding workflow as json: %w", err)
	}
	return nil
}

// Decode implements Backend.
func (JSONBackend) Decode(r io.Reader) (*Workflow, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	dec.DisallowUnknownFields()
	var wf Workflow
	if err := dec.Decode(&wf); err != nil {
		return nil, fmt.Errorf("decoding json workflow: %w", err)
	}
	normalizeValues(&wf)
	return &wf, nil
}

// YAMLBackend writes YAML with two-space indentation.
type YAMLBackend struct{}

// Format implements Backend.
func (YAMLBackend) Format() string { return "yaml" }

// Encode implements Backend.
func (YAMLBackend) Encode(w io.Writer, wf *Workflow) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(wf); err != nil {
		return fmt.Errorf("encoding workflow as yaml: %w", err)
	}
	return enc.Close()
}

// Decode implements Backend.
func (YAMLBackend) Decode(r io.Reader) (*Workflow, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var wf Workflow
	if err := dec.Decode(&wf); err != nil {
		return nil, fmt.Errorf("decoding yaml workflow: %w", err)
	}
	normalizeValues(&wf)
	return &wf, nil
}

func normalizeValues(wf *Workflow) {
	for i := range wf.Tasks {
		for j := range wf.Tasks[i].Inputs {
			in := &wf.Tasks[i].Inputs[j]
			if in.Value != nil {
				in.Value = normalize(in.Value)
			}
		}
	}
}

// BackendFor returns the back end for a format name or file extension.
func BackendFor(format string) (Backend, error) {
	switch strings.ToLower(strings.TrimPrefix(format, ".")) {
	case "json":
		return JSONBackend{}, nil
	case "yaml", "yml":
		return YAMLBackend{}, nil
	default:
		return nil, fmt.Errorf("unsupported workflow format %q: must be 'json' or 'yaml'", format)
	}
}

// Marshal encodes wf in the given format.
func Marshal(wf *Workflow, format string) ([]byte, error) {
	be, err := BackendFor(format)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := be.Encode(&buf, wf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteFile writes wf atomically, picking the format from the extension.
func WriteFile(path string, wf *Workflow) error {
	b, err := Marshal(wf, filepath.Ext(path))
	if err != nil {
		return err
	}
	if err := fsutil.WriteFileAtomic(path, b, 0o644); err != nil {
		return fmt.Errorf("writing workflow %s: %w", path, err)
	}
	return nil
}

// ReadFile decodes and validates a workflow document.
func ReadFile(path string) (*Workflow, error) {
	be, err := BackendFor(filepath.Ext(path))
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	wf, err := be.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if err := wf.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return wf, nil
}
