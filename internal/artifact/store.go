package artifact

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrNotMaterialized is returned by Resolve for artifacts that have not been published.
	ErrNotMaterialized = errors.New("artifact not materialized")
	// ErrAlreadyPublished is returned when an artifact is staged or published a second time.
	ErrAlreadyPublished = errors.New("artifact already published")
	// ErrNotStaged is returned by Publish when the producer never staged the artifact.
	ErrNotStaged = errors.New("artifact not staged")
	// ErrMissingOutput is returned by Publish when the staged file was never written.
	ErrMissingOutput = errors.New("staged artifact file was not written")
)

// Ref identifies an artifact by its producing task and output name.
type Ref struct {
	Task   string `json:"task" yaml:"task"`
	Output string `json:"output" yaml:"output"`
}

// String renders the reference as "task.output".
func (r Ref) String() string {
	return r.Task + "." + r.Output
}

// Info describes a published artifact.
type Info struct {
	Ref    Ref
	Path   string
	Size   int64
	SHA256 string
}

// Store is the contract between producing and consuming tasks.
type Store interface {
	// Stage allocates the private path the producer writes ref to.
	Stage(ctx context.Context, ref Ref) (string, error)
	// Publish makes a staged artifact visible to readers, exactly once.
	Publish(ctx context.Context, ref Ref) (Info, error)
	// Discard drops a staged artifact after its producer failed.
	Discard(ctx context.Context, ref Ref) error
	// Resolve returns the readable path of a published artifact.
	Resolve(ctx context.Context, ref Ref) (string, error)
	// List returns published artifacts in publish order.
	List(ctx context.Context) []Info
}

// refError attaches the artifact identity to a store error.
func refError(ref Ref, err error) error {
	return fmt.Errorf("artifact %s: %w", ref, err)
}
