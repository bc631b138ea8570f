// Package config loads an optional HCL run profile: interpreter hint, port
// and timeout settings, run filters, and typed input values for injection.
// CLI flags take precedence over profile values; the profile exists so
// repeated runs of the same project do not need a wall of flags.
package config
