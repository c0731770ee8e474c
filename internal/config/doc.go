// Package config loads service configuration from defaults, an optional
// config.yaml and EXPLORER_-prefixed environment variables, and validates it
// before anything else starts.
package config
