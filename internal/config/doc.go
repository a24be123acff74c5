// Package config loads and merges bestrev configuration from multiple
// sources.
//
// Precedence (highest to lowest):
//  1. CLI flags
//  2. Environment variables (BESTREV_PROVIDER, BESTREV_MODEL, BESTREV_DB, etc.)
//  3. Config file ($XDG_CONFIG_HOME/bestrev/config.json)
//  4. Built-in defaults
//
// Use [Load] to obtain a merged [Config] and [LoadCriteria] to read a YAML
// criteria pack describing the scoring perspectives.
package config
