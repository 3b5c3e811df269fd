// Package cli defines the Cobra command tree for the gemstrap CLI. The root
// command bootstraps a gem; each other file registers one subcommand
// (config, doctor, version). Commands only parse flags and format output;
// the work happens in the internal packages.
package cli
