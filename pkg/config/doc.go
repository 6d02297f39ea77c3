// Package config loads pool and schedule settings from YAML files.
package config
