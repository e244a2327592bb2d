// Package config provides configuration loading, merging, and validation
// facilities for the vault engine.
//
// Configuration is assembled from multiple sources in the following priority
// order (earlier sources win, later sources fill remaining zero fields):
//  1. Command-line flags
//  2. Environment variables (KEEPTOWER_* namespace)
//  3. JSON config file (path resolved from sources 1 and 2)
//  4. Built-in defaults
//
// The main entry point is [GetEngineConfig]. The engine itself never reads
// configuration: the values collected here are handed to it as explicit
// parameters at creation/open time.
package config
