package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// parseJSON reads an [EngineConfig] from a JSON file. The file uses the
// `json` tags declared on the config types, for example:
//
//	{
//	  "vault": {"dir": "/home/user/vaults", "history_depth": 3},
//	  "kdf": {"iterations": 600000, "argon_time": 3},
//	  "fec": {"redundancy": 20},
//	  "token": {"require": false},
//	  "logging": {"level": "info"}
//	}
func parseJSON(jsonFilePath string) (*EngineConfig, error) {
	jsonFile, err := os.Open(jsonFilePath)
	if err != nil {
		return nil, fmt.Errorf("error reading a json file: %w", err)
	}
	defer jsonFile.Close()

	cfg := &EngineConfig{}
	if err := json.NewDecoder(jsonFile).Decode(cfg); err != nil {
		return nil, fmt.Errorf("error decoding json configs: %w", err)
	}

	// The file must not chain-load another file.
	cfg.JSONFilePath = ""
	return cfg, nil
}
