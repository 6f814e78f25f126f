// Package config provides configuration management for docs2md.
//
// Values come from three layers, later layers winning: NewConfig defaults,
// an optional YAML file (.docs2md), and CLI flags. Validate compiles the
// content class pattern once so extractors share an immutable regexp.
package config
