package artifact

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/vk/gridflow/internal/ctxlog"
)

const stagingDir = ".staging"

// FSStore is a Store backed by a directory tree:
//
//	<root>/<runID>/<task>/<output>          published artifacts
//	<root>/<runID>/.staging/<task>/<output>  files being written
//
// Staging and final paths share a filesystem, so Publish is a single rename.
// FSStore is safe for concurrent use.
type FSStore struct {
	base string

	mu        sync.Mutex
	staged    map[Ref]string
	published map[Ref]Info
	order     []Ref
}

// NewFSStore creates a store for one run below root.
func NewFSStore(root, runID string) (*FSStore, error) {
	if root == "" {
		return nil, fmt.Errorf("artifact root must not be empty")
	}
	if err := validSegment(runID); err != nil {
		return nil, fmt.Errorf("invalid run id: %w", err)
	}
	base := filepath.Join(root, runID)
	if err := os.MkdirAll(filepath.Join(base, stagingDir), 0o755); err != nil {
		return nil, fmt.Errorf("creating artifact directory: %w", err)
	}
	return &FSStore{
		base:      base,
		staged:    make(map[Ref]string),
		published: make(map[Ref]Info),
	}, nil
}

// Dir returns the run directory of the store.
func (s *FSStore) Dir() string {
	return s.base
}

// Stage implements Store.
func (s *FSStore) Stage(ctx context.Context, ref Ref) (string, error) {
	if err := validRef(ref); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.published[ref]; ok {
		return "", refError(ref, ErrAlreadyPublished)
	}
	if p, ok := s.staged[ref]; ok {
		return p, nil
	}

	p := filepath.Join(s.base, stagingDir, ref.Task, ref.Output)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return "", refError(ref, err)
	}
	// A leftover from an earlier attempt must not be mistaken for fresh output.
	if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
		return "", refError(ref, err)
	}
	s.staged[ref] = p

	ctxlog.FromContext(ctx).Debug("Artifact staged.", "artifact", ref.String(), "path", p)
	return p, nil
}

// Publish implements Store.
func (s *FSStore) Publish(ctx context.Context, ref Ref) (Info, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.published[ref]; ok {
		return Info{}, refError(ref, ErrAlreadyPublished)
	}
	staged, ok := s.staged[ref]
	if !ok {
		return Info{}, refError(ref, ErrNotStaged)
	}

	size, sum, err := digest(staged)
	if err != nil {
		if os.IsNotExist(err) {
			return Info{}, refError(ref, ErrMissingOutput)
		}
		return Info{}, refError(ref, err)
	}

	final := filepath.Join(s.base, ref.Task, ref.Output)
	if err := os.MkdirAll(filepath.Dir(final), 0o755); err != nil {
		return Info{}, refError(ref, err)
	}
	if err := os.Rename(staged, final); err != nil {
		return Info{}, refError(ref, fmt.Errorf("publishing: %w", err))
	}

	info := Info{Ref: ref, Path: final, Size: size, SHA256: sum}
	delete(s.staged, ref)
	s.published[ref] = info
	s.order = append(s.order, ref)

	ctxlog.FromContext(ctx).Debug("Artifact published.", "artifact", ref.String(), "size", size)
	return info, nil
}

// Discard implements Store.
func (s *FSStore) Discard(ctx context.Context, ref Ref) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	staged, ok := s.staged[ref]
	if !ok {
		return nil
	}
	delete(s.staged, ref)
	if err := os.Remove(staged); err != nil && !os.IsNotExist(err) {
		return refError(ref, err)
	}
	ctxlog.FromContext(ctx).Debug("Staged artifact discarded.", "artifact", ref.String())
	return nil
}

// Resolve implements Store.
func (s *FSStore) Resolve(_ context.Context, ref Ref) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	info, ok := s.published[ref]
	if !ok {
		return "", refError(ref, ErrNotMaterialized)
	}
	return info.Path, nil
}

// List implements Store.
func (s *FSStore) List(_ context.Context) []Info {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Info, 0, len(s.order))
	for _, ref := range s.order {
		out = append(out, s.published[ref])
	}
	return out
}

func digest(path string) (int64, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, "", err
	}
	defer f.Close()

	h := sha256.New()
	n, err := io.Copy(h, f)
	if err != nil {
		return 0, "", err
	}
	return n, hex.EncodeToString(h.Sum(nil)), nil
}

func validRef(ref Ref) error {
	if err := validSegment(ref.Task); err != nil {
		return refError(ref, fmt.Errorf("task: %w", err))
	}
	if err := validSegment(ref.Output); err != nil {
		return refError(ref, fmt.Errorf("output: %w", err))
	}
	return nil
}

// validSegment keeps identifiers from escaping the store directory.
func validSegment(s string) error {
	switch {
	case s == "":
		return fmt.Errorf("empty path segment")
	case s == "." || s == ".." || s == stagingDir:
		return fmt.Errorf("reserved path segment %q", s)
	case strings.ContainsAny(s, `/\`):
		return fmt.Errorf("path separator in segment %q", s)
	}
	return nil
}
