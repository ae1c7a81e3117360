// Package util provides small generic helpers shared across gatekit.
//
// It includes slice and map operations, size and duration formatting,
// and shell-safe argv rendering.
package util
