// Package collab holds the narrow interfaces through which the recipe
// reaches external tools and services, with their real implementations.
package collab
