// Package recipe is the fixed list of steps that turns a freshly generated
// gem into a configured one: metadata, license, lint and editor settings,
// CI matrix, coverage, AsciiDoc documentation, dependencies and autofixes.
package recipe
