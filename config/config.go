// Completion: 100% - Configuration module complete
// Package config centralizes the environment-variable overrides the
// Forcer and its collaborators read at construction time. It exists so
// tests can point symbol/address resolution at fixtures instead of the
// real /proc filesystem without threading extra parameters through the
// public API.
package config

import "github.com/xyproto/env/v2"

const (
	// EnvVerbose, when truthy, turns on diagnostic logging (internal/diag).
	EnvVerbose = "GOFORCE_VERBOSE"
	// EnvSelfExe overrides the executable image path opened by the
	// symbol resolver. Default is /proc/self/exe.
	EnvSelfExe = "GOFORCE_SELF_EXE"
	// EnvMapsPath overrides the process memory map read by the
	// address-space resolver. Default is /proc/self/maps.
	EnvMapsPath = "GOFORCE_MAPS_PATH"
)

const (
	defaultSelfExe  = "/proc/self/exe"
	defaultMapsPath = "/proc/self/maps"
)

// Config holds the resolved, defaulted settings for one Forcer.
type Config struct {
	Verbose  bool
	SelfExe  string
	MapsPath string
}

// FromEnv reads Config from the process environment, applying defaults
// for anything unset.
func FromEnv() Config {
	return Config{
		Verbose:  env.Bool(EnvVerbose),
		SelfExe:  env.StrOr(EnvSelfExe, defaultSelfExe),
		MapsPath: env.StrOr(EnvMapsPath, defaultMapsPath),
	}
}
