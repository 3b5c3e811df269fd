// Package scaffold creates the initial gem tree that the recipe then
// configures. BundlerGenerator delegates to `bundle gem`; TemplateGenerator
// renders an equivalent skeleton from embedded templates without needing
// Ruby installed.
package scaffold
