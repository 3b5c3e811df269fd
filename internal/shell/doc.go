// Package shell runs external commands behind an interface so collaborators
// can be replaced by recording fakes in tests.
package shell
