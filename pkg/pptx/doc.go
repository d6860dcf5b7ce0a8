// Package pptx reads, edits and writes OOXML presentation packages (.pptx).
//
// The package exposes only what template binding needs: the master/layout
// hierarchy, placeholders with their stable field-key metadata (the `descr`
// attribute of each placeholder's non-visual properties), slide
// instantiation from a layout, text and picture binding, notes slides and an
// atomic save. Parts the package does not understand are carried through
// untouched; parts that become unreachable (for example removed example
// slides) are dropped on save.
package pptx
