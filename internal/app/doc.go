// Package app contains the core application logic. It turns a configuration
// into a compiled workflow and runs it locally, decoupled from any specific
// entrypoint like a CLI or server.
package app
