// Package report renders plain-text summaries of drift checks, preflight
// reports and render maps through a pongo2 template set. The default
// templates are embedded; callers can point the engine at their own.
package report
