// Package configdoc edits YAML configuration documents such as .travis.yml
// and .rubocop.yml. A Document is loaded, changed through idempotent
// operations (EnsureDefault, AppendUnique, SortDedup), and saved with its
// original key order so repeated runs produce byte-identical files. Documents
// can also be checked against the JSON schemas embedded in this package.
package configdoc
