// Package checklist runs labelled actions and reports each one as a
// "[ OK ]" or "[FAIL]" line.
package checklist
