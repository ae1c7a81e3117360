// Package config provides configuration loading and validation for the
// gatekit CLI.
//
// It uses Viper to load a YAML config file (gatekit.yml or config.yml,
// searched from the working directory upward), overlays a .env file via
// godotenv, and finally overlays process environment variables. Every
// value is optional; defaults produce a working configuration on a bare
// checkout.
//
// # Usage
//
//	cfg, err := config.Load()
//
// Environment variables override file values using the GATEKIT_ prefix
// with underscore-separated paths (e.g. GATEKIT_EXECUTION_MAX_PARALLEL
// sets execution.max_parallel).
package config
