// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package config

const (
	// Command line option keys
	ConfigFileKey = "config-file"
	VersionKey    = "version"
	HelpKey       = "help"

	// Top-level configuration keys
	LogLevelKey     = "log-level"
	MetricsPortKey  = "metrics-port"
	WorkersKey      = "workers"
	ScenarioFileKey = "scenario-file"
)

const (
	defaultLogLevel    = "info"
	defaultMetricsPort = uint16(9090)
	defaultWorkers     = 4
)
