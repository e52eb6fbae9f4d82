// Package commands implements the rangeagg subcommands.
package commands

// Globals holds the root command's persistent flags.
type Globals struct {
	ConfigPath string
	Verbose    bool
	Quiet      bool
}
