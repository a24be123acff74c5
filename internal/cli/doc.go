// Package cli wires together the Cobra command tree for the bestrev binary.
//
// It defines the root command and all subcommands (run, show, reviews,
// config, models, cache, version), binds flags, reads configuration, invokes
// the selection pipeline, and returns deterministic exit codes for
// scripting.
package cli
