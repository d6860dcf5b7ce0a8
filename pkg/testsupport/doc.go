// Package testsupport provides fixtures shared by the package tests: a
// synthetic presentation template built in memory, the matching layout
// catalog, an icon index with PNG assets and a sample deck.
package testsupport
