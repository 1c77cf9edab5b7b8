// Package config resolves the settings of a scaffold run (template set,
// package manager, install arguments, log level) from defaults,
// ~/.create-yawuxi-app/config.yaml, YAWUXI_* environment variables and
// command-line flags, and hands them to the rest of the program as a single
// Config value.
package config
