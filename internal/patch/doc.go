// Package patch rewrites text files in place with ordered regular-expression
// rules. A file is either fully patched or left untouched: every rule runs
// against an in-memory copy and the result is written back with a temp file
// and rename.
//
// Rule templates use %{field} placeholders filled from the project metadata.
// Substitution never evaluates anything: user values are inserted literally,
// so names or descriptions containing $, quotes or #{...} cannot change what
// a rule does.
package patch
