// Package apperr defines the error taxonomy for gemstrap. Every error that
// reaches the CLI is fatal; the kind only decides how it is described.
package apperr
