// Package deckir defines the DeckIR contract: the structured, pre-render
// description of a deck. Field values and speaker notes are tagged
// variants so capacity checks dispatch on an explicit kind. Documents are
// validated against an embedded OpenAPI schema before they are decoded.
package deckir
