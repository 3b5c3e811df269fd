// Package logger builds the zerolog logger used across gemstrap.
package logger
