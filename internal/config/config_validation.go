// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 KeepTower Authors

package config

import "math"

// defaultConfig is the last merge source: any field no other source set
// takes its value from here.
func defaultConfig() *EngineConfig {
	return &EngineConfig{
		Vault: Vault{
			Dir:          ".",
			HistoryDepth: 3,
		},
		KDF: KDF{
			Iterations:     600_000,
			ArgonTime:      3,
			ArgonMemoryKiB: 64 * 1024,
			ArgonThreads:   4,
		},
		FEC: FEC{
			DataRedundancy: 20,
		},
		Logging: Logging{
			Level: "info",
		},
	}
}

// validate checks that the final merged [EngineConfig] satisfies the bounds
// the narrowing conversions in [EngineConfig.Policy] depend on.
//
// Returns nil if the configuration is valid, or a sentinel error otherwise.
func (cfg *EngineConfig) validate() error {
	if cfg.FEC.DataRedundancy > 100 {
		return ErrInvalidFECConfigs
	}

	if uint64(cfg.KDF.Iterations) > math.MaxUint32 ||
		uint64(cfg.KDF.ArgonTime) > math.MaxUint32 ||
		uint64(cfg.KDF.ArgonMemoryKiB) > math.MaxUint32 ||
		cfg.KDF.ArgonThreads > math.MaxUint8 {
		return ErrInvalidKDFConfigs
	}

	argonUsable := cfg.KDF.ArgonTime > 0 && cfg.KDF.ArgonThreads > 0
	if !argonUsable && cfg.KDF.Iterations == 0 {
		return ErrInvalidKDFConfigs
	}
	if argonUsable && cfg.KDF.ArgonMemoryKiB < 8*cfg.KDF.ArgonThreads {
		return ErrInvalidKDFConfigs
	}

	if cfg.Vault.HistoryDepth > math.MaxInt32 {
		return ErrInvalidVaultConfigs
	}

	return nil
}
