package config

import (
	"flag"
)

// ParseFlags parses all configuration flags.
//
// Flags:
//
//	-vault-dir default directory for new vault files
//	-history-depth password history depth per key slot
//	-kdf-iterations PBKDF2-SHA256 iteration count
//	-argon-time Argon2id time parameter
//	-argon-memory Argon2id memory parameter in KiB
//	-argon-threads Argon2id parallelism
//	-redundancy payload FEC redundancy percent (0-100)
//	-require-token require a hardware token for new vaults
//	-log-level minimum log level
//	-c/-config json file path with configs
func ParseFlags() *EngineConfig {
	var vaultDir string
	var historyDepth uint
	var kdfIterations uint
	var argonTime uint
	var argonMemoryKiB uint
	var argonThreads uint
	var redundancy uint
	var requireToken bool
	var logLevel string
	var jsonConfigPath string

	flag.StringVar(&vaultDir, "vault-dir", "", "Default directory for new vault files")
	flag.UintVar(&historyDepth, "history-depth", 0, "Password history depth per key slot")
	flag.UintVar(&kdfIterations, "kdf-iterations", 0, "PBKDF2-SHA256 iteration count")
	flag.UintVar(&argonTime, "argon-time", 0, "Argon2id time parameter")
	flag.UintVar(&argonMemoryKiB, "argon-memory", 0, "Argon2id memory parameter (KiB)")
	flag.UintVar(&argonThreads, "argon-threads", 0, "Argon2id parallelism")
	flag.UintVar(&redundancy, "redundancy", 0, "Payload FEC redundancy percent (0-100)")
	flag.BoolVar(&requireToken, "require-token", false, "Require a hardware token for new vaults")
	flag.StringVar(&logLevel, "log-level", "", "Minimum log level (trace, debug, info, warn, error)")
	flag.StringVar(&jsonConfigPath, "c", "", "JSON config file path")
	flag.StringVar(&jsonConfigPath, "config", "", "JSON config file path (alias)")

	flag.Parse()

	return &EngineConfig{
		Vault: Vault{
			Dir:          vaultDir,
			HistoryDepth: historyDepth,
		},
		KDF: KDF{
			Iterations:     kdfIterations,
			ArgonTime:      argonTime,
			ArgonMemoryKiB: argonMemoryKiB,
			ArgonThreads:   argonThreads,
		},
		FEC: FEC{
			DataRedundancy: redundancy,
		},
		Token: Token{
			Require: requireToken,
		},
		Logging: Logging{
			Level: logLevel,
		},
		JSONFilePath: jsonConfigPath,
	}
}
