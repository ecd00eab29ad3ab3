// Package application wires the resolved configuration document into the
// HTTP handler, router, and server, leaving the main package to CLI parsing
// and orchestration.
package application
