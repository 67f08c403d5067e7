// Package version holds build identity for the lumina binary.
package version

const (
	AppName   = "Lumina"
	Version   = "1.9.0"
	BuildDate = "2026-02-11"
)
