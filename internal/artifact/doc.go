// Package artifact implements the store through which tasks hand files to
// each other.
//
// An artifact is identified by the task that produces it and the name of the
// output it fills (see Ref). A producing task writes into a private staging
// path obtained from Stage; nothing is visible to readers until Publish moves
// the staged file into its final location with a single rename. Readers only
// ever get paths from Resolve, which refuses artifacts that have not been
// published, so a reader can never observe a partially written artifact.
//
// Artifacts are immutable: once published they cannot be staged or published
// again for the lifetime of the run.
package artifact
