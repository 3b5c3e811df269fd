// Package doctor checks that the external tools a gem bootstrap drives are
// installed and recent enough.
package doctor
