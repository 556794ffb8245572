package compiler

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/vk/gridflow/internal/artifact"
	"github.com/vk/gridflow/internal/component"
)

const (
	// APIVersion identifies the document schema.
	APIVersion = "gridflow.dev/v1"
	// DocumentKind is the kind field of every compiled document.
	DocumentKind = "Workflow"
)

// Workflow is a compiled pipeline. Tasks are in execution order: every task
// appears after all tasks it reads from.
type Workflow struct {
	APIVersion  string `json:"apiVersion" yaml:"apiVersion"`
	Kind        string `json:"kind" yaml:"kind"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	// Fingerprint is the SHA-256 of the canonical JSON of Tasks.
	Fingerprint string `json:"fingerprint" yaml:"fingerprint"`
	Tasks       []Task `json:"tasks" yaml:"tasks"`
}

// Task is one compiled task.
type Task struct {
	ID        string   `json:"id" yaml:"id"`
	Component string   `json:"component" yaml:"component"`
	Handler   string   `json:"handler" yaml:"handler"`
	DependsOn []string `json:"dependsOn,omitempty" yaml:"dependsOn,omitempty"`
	Inputs    []Input  `json:"inputs" yaml:"inputs"`
	Outputs   []Output `json:"outputs" yaml:"outputs"`
}

// Input is a resolved binding. Exactly one of Value and Artifact is set.
type Input struct {
	Name     string            `json:"name" yaml:"name"`
	Kind     component.Kind    `json:"kind" yaml:"kind"`
	Type     component.TypeTag `json:"type" yaml:"type"`
	Value    any               `json:"value,omitempty" yaml:"value,omitempty"`
	Artifact *ArtifactRef      `json:"artifact,omitempty" yaml:"artifact,omitempty"`
}

// literalInput encodes a literal Input with Value always present, so empty
// strings, zeros, false and empty lists survive a round trip.
type literalInput struct {
	Name  string            `json:"name" yaml:"name"`
	Kind  component.Kind    `json:"kind" yaml:"kind"`
	Type  component.TypeTag `json:"type" yaml:"type"`
	Value any               `json:"value" yaml:"value"`
}

// artifactInput is Input without its marshalers.
type artifactInput Input

func (in Input) encoded() any {
	if in.Kind == component.Artifact {
		return artifactInput(in)
	}
	return literalInput{Name: in.Name, Kind: in.Kind, Type: in.Type, Value: in.Value}
}

// MarshalJSON implements json.Marshaler.
func (in Input) MarshalJSON() ([]byte, error) {
	return json.Marshal(in.encoded())
}

// MarshalYAML implements yaml.Marshaler.
func (in Input) MarshalYAML() (any, error) {
	return in.encoded(), nil
}

// Output is a declared output artifact.
type Output struct {
	Name string            `json:"name" yaml:"name"`
	Type component.TypeTag `json:"type" yaml:"type"`
}

// ArtifactRef names the producing task and output of an artifact input.
type ArtifactRef struct {
	Task   string `json:"task" yaml:"task"`
	Output string `json:"output" yaml:"output"`
}

// Ref converts to the artifact store's identity.
func (r ArtifactRef) Ref() artifact.Ref {
	return artifact.Ref{Task: r.Task, Output: r.Output}
}

// Task returns the task with the given ID.
func (w *Workflow) Task(id string) (*Task, bool) {
	for i := range w.Tasks {
		if w.Tasks[i].ID == id {
			return &w.Tasks[i], true
		}
	}
	return nil, false
}

// Output returns the declared output called name.
func (t *Task) Output(name string) (Output, bool) {
	for _, o := range t.Outputs {
		if o.Name == name {
			return o, true
		}
	}
	return Output{}, false
}

// Downstream returns every task that cannot run if id fails, in workflow
// order. id itself is not included.
func (w *Workflow) Downstream(id string) []string {
	blocked := map[string]bool{id: true}
	var out []string
	for _, t := range w.Tasks {
		if t.ID == id {
			continue
		}
		for _, dep := range t.DependsOn {
			if blocked[dep] {
				blocked[t.ID] = true
				out = append(out, t.ID)
				break
			}
		}
	}
	return out
}

// fingerprint hashes the canonical JSON of tasks.
func fingerprint(tasks []Task) (string, error) {
	b, err := json.Marshal(tasks)
	if err != nil {
		return "", fmt.Errorf("fingerprinting tasks: %w", err)
	}
	sum := sha256.Sum256(b)
	return "sha256:" + hex.EncodeToString(sum[:]), nil
}

// Validate checks a document read from disk. It trusts nothing about how the
// document was produced.
func (w *Workflow) Validate() error {
	if w.APIVersion != APIVersion {
		return &DocumentError{Reason: fmt.Sprintf("unsupported apiVersion %q", w.APIVersion)}
	}
	if w.Kind != DocumentKind {
		return &DocumentError{Reason: fmt.Sprintf("unexpected kind %q", w.Kind)}
	}

	seen := make(map[string]*Task, len(w.Tasks))
	for i := range w.Tasks {
		t := &w.Tasks[i]
		if !component.ValidName(t.ID) {
			return &DocumentError{Task: t.ID, Reason: "invalid task id"}
		}
		if seen[t.ID] != nil {
			return &DocumentError{Task: t.ID, Reason: "duplicate task id"}
		}
		if t.Handler == "" {
			return &DocumentError{Task: t.ID, Reason: "no handler"}
		}

		outs := make(map[string]bool, len(t.Outputs))
		for _, o := range t.Outputs {
			if outs[o.Name] {
				return &DocumentError{Task: t.ID, Reason: fmt.Sprintf("duplicate output %q", o.Name)}
			}
			outs[o.Name] = true
		}

		deps := make(map[string]bool, len(t.DependsOn))
		for _, dep := range t.DependsOn {
			if seen[dep] == nil {
				return &DocumentError{Task: t.ID, Reason: fmt.Sprintf("depends on %q, which is not an earlier task", dep)}
			}
			deps[dep] = true
		}

		for _, in := range t.Inputs {
			if err := validateInput(t, in, seen, deps); err != nil {
				return err
			}
		}
		seen[t.ID] = t
	}

	want, err := fingerprint(w.Tasks)
	if err != nil {
		return err
	}
	if w.Fingerprint != want {
		return &DocumentError{Reason: fmt.Sprintf("fingerprint mismatch: document says %s, tasks hash to %s", w.Fingerprint, want)}
	}
	return nil
}

func validateInput(t *Task, in Input, earlier map[string]*Task, deps map[string]bool) error {
	switch in.Kind {
	case component.Literal:
		if in.Artifact != nil {
			return &DocumentError{Task: t.ID, Reason: fmt.Sprintf("literal input %q carries an artifact reference", in.Name)}
		}
		if in.Value == nil {
			return &DocumentError{Task: t.ID, Reason: fmt.Sprintf("literal input %q has no value", in.Name)}
		}
		if _, err := LiteralValue(in.Value, in.Type); err != nil {
			return &DocumentError{Task: t.ID, Reason: fmt.Sprintf("input %q: %s", in.Name, err)}
		}
	case component.Artifact:
		if in.Artifact == nil {
			return &DocumentError{Task: t.ID, Reason: fmt.Sprintf("artifact input %q has no reference", in.Name)}
		}
		producer := earlier[in.Artifact.Task]
		if producer == nil {
			return &DocumentError{Task: t.ID, Reason: fmt.Sprintf("input %q reads from %q, which is not an earlier task", in.Name, in.Artifact.Task)}
		}
		out, ok := producer.Output(in.Artifact.Output)
		if !ok {
			return &DocumentError{Task: t.ID, Reason: fmt.Sprintf("input %q reads undeclared output %s", in.Name, in.Artifact.Ref())}
		}
		if out.Type != in.Type {
			return &DocumentError{Task: t.ID, Reason: fmt.Sprintf("input %q wants %s, %s is %s", in.Name, in.Type, in.Artifact.Ref(), out.Type)}
		}
		if !deps[in.Artifact.Task] {
			return &DocumentError{Task: t.ID, Reason: fmt.Sprintf("input %q reads from %q, which is missing from dependsOn", in.Name, in.Artifact.Task)}
		}
	default:
		return &DocumentError{Task: t.ID, Reason: fmt.Sprintf("input %q has unknown kind", in.Name)}
	}
	return nil
}
