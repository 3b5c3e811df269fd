package project

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ModuleName derives the Ruby constant bundler uses for a gem name:
// underscores join words, dashes nest namespaces.
//
//	widgets   -> Widgets
//	my_gem    -> MyGem
//	foo-bar   -> Foo::Bar
func ModuleName(name string) string {
	// A Caser keeps state between calls, so each call gets its own.
	titler := cases.Title(language.English)
	parts := strings.Split(name, "-")
	for i, part := range parts {
		words := strings.Split(part, "_")
		for j, w := range words {
			words[j] = titler.String(w)
		}
		parts[i] = strings.Join(words, "")
	}
	return strings.Join(parts, "::")
}
