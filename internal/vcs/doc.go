// Package vcs records pipeline checkpoints in git.
package vcs
