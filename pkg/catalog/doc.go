// Package catalog models the layout catalog: the registry of template
// layouts, the field keys each one exposes and the capacity constraints the
// preflight engine enforces. Catalogs load from JSON or YAML and can be
// generated from an annotated template.
package catalog
