// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 KeepTower Authors

package config

import (
	"github.com/tjdeveng/KeepTower-sub013/models"
)

// EngineConfig is the top-level configuration container for the vault
// engine. It aggregates all sub-configurations and is populated by merging
// values from command-line flags, environment variables, an optional JSON
// file, and built-in defaults.
//
// Struct tags:
//   - envPrefix: prefix applied to all nested env tag lookups (caarlos0/env).
//   - env: direct environment variable name for scalar fields.
//   - json: field name in the optional JSON config file.
//
// Numeric fields are deliberately wider than their policy counterparts;
// range checking happens once in validate, and [EngineConfig.Policy]
// narrows the values afterwards.
type EngineConfig struct {
	// Vault holds file-placement and slot-policy settings.
	Vault Vault `envPrefix:"KEEPTOWER_VAULT_" json:"vault,omitempty"`

	// KDF holds the key-derivation cost settings recorded into new vaults.
	KDF KDF `envPrefix:"KEEPTOWER_KDF_" json:"kdf,omitempty"`

	// FEC holds the forward-error-correction settings for new vaults.
	FEC FEC `envPrefix:"KEEPTOWER_FEC_" json:"fec,omitempty"`

	// Token holds the hardware-token policy.
	Token Token `envPrefix:"KEEPTOWER_TOKEN_" json:"token,omitempty"`

	// Logging holds log output settings.
	Logging Logging `envPrefix:"KEEPTOWER_LOG_" json:"logging,omitempty"`

	// JSONFilePath is the optional path to a JSON configuration file.
	// When non-empty, the file is parsed and merged behind the values
	// already loaded from flags and environment variables.
	// Populated via the KEEPTOWER_CONFIG environment variable or the
	// -c / -config flag.
	JSONFilePath string `env:"KEEPTOWER_CONFIG" json:"-"`
}

// Vault groups file-placement and slot-policy settings.
type Vault struct {
	// Dir is the default directory for new vault files when the caller
	// gives a bare file name.
	// Env: KEEPTOWER_VAULT_DIR
	Dir string `env:"DIR" json:"dir"`

	// HistoryDepth is how many previous password verifiers each key slot
	// retains for reuse refusal. Zero disables password history.
	// Env: KEEPTOWER_VAULT_HISTORY_DEPTH
	HistoryDepth uint `env:"HISTORY_DEPTH" json:"history_depth"`
}

// KDF groups the key-derivation cost settings. Argon2id is used whenever
// Time and Threads are non-zero; Iterations is the PBKDF2-SHA256 fallback
// cost and is also recorded in the V2 container prologue.
type KDF struct {
	// Iterations is the PBKDF2-SHA256 iteration count.
	// Env: KEEPTOWER_KDF_ITERATIONS
	Iterations uint `env:"ITERATIONS" json:"iterations"`

	// ArgonTime is the Argon2id time parameter (passes over memory).
	// Env: KEEPTOWER_KDF_ARGON_TIME
	ArgonTime uint `env:"ARGON_TIME" json:"argon_time"`

	// ArgonMemoryKiB is the Argon2id memory parameter in KiB.
	// Env: KEEPTOWER_KDF_ARGON_MEMORY_KIB
	ArgonMemoryKiB uint `env:"ARGON_MEMORY_KIB" json:"argon_memory_kib"`

	// ArgonThreads is the Argon2id parallelism parameter.
	// Env: KEEPTOWER_KDF_ARGON_THREADS
	ArgonThreads uint `env:"ARGON_THREADS" json:"argon_threads"`
}

// FEC groups forward-error-correction settings.
type FEC struct {
	// DataRedundancy is the payload parity percentage (0-100) for new
	// vaults. Zero disables payload FEC; the V2 header keeps its own
	// floor regardless.
	// Env: KEEPTOWER_FEC_REDUNDANCY
	DataRedundancy uint `env:"REDUNDANCY" json:"redundancy"`
}

// Token groups hardware-token policy settings.
type Token struct {
	// Require makes new vaults demand a hardware token in addition to the
	// password.
	// Env: KEEPTOWER_TOKEN_REQUIRE
	Require bool `env:"REQUIRE" json:"require"`
}

// Logging groups log output settings.
type Logging struct {
	// Level is the minimum level emitted: trace, debug, info, warn, error.
	// Env: KEEPTOWER_LOG_LEVEL
	Level string `env:"LEVEL" json:"level"`
}

// Policy converts the merged configuration into the security policy recorded
// in a new vault. Call only on a validated config: validate bounds every
// field the narrowing conversions here rely on.
func (cfg *EngineConfig) Policy() models.SecurityPolicy {
	return models.SecurityPolicy{
		KDFIterations:        uint32(cfg.KDF.Iterations),
		Argon2Time:           uint32(cfg.KDF.ArgonTime),
		Argon2MemoryKiB:      uint32(cfg.KDF.ArgonMemoryKiB),
		Argon2Threads:        uint8(cfg.KDF.ArgonThreads),
		DataRedundancy:       uint8(cfg.FEC.DataRedundancy),
		RequireHWToken:       cfg.Token.Require,
		PasswordHistoryDepth: int(cfg.Vault.HistoryDepth),
	}
}

// GetEngineConfig loads, merges, and validates the engine configuration from
// all available sources in the following priority order (earlier sources
// win for non-zero fields):
//  1. Command-line flags
//  2. Environment variables
//  3. JSON file (path resolved from sources 1 and 2)
//  4. Built-in defaults
//
// Returns a fully populated *EngineConfig or an error if any source fails
// to load or the final config fails validation.
func GetEngineConfig() (*EngineConfig, error) {
	return newConfigBuilder().
		withFlags().
		withEnv().
		withJSON().
		withDefaults().
		build()
}
