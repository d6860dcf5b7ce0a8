// Package orchestrator wires the drift gate → preflight → render pipeline
// behind the validate, render and smoke commands. Render and smoke write
// every artifact of an invocation into runs/<run_id>/ next to an
// append-only event log.
package orchestrator
