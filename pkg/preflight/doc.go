// Package preflight checks a deck against the capacity constraints of its
// layouts and deterministically rewrites slides that would overflow.
//
// Remediation is a fixed pipeline applied per body field: drop bullets past
// the budget, condense long bullets, move trailing bullets to speaker notes
// and finally truncate at a word boundary. Titles are truncated last. Every
// piece of text removed from a slide is kept verbatim in the speaker notes
// under a REMEDIATION OVERFLOW banner. Running the engine on its own output
// changes nothing.
package preflight
