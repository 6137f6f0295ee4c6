// Package config loads the hive configuration from defaults, an optional
// YAML file, and HIVE_-prefixed environment variables, in that order of
// precedence.
package config
