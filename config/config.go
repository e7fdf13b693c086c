package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"sponsornet/crypto"
)

// Config is the node configuration persisted as TOML next to the data dir.
type Config struct {
	RPCAddress         string `toml:"RPCAddress"`
	MetricsAddress     string `toml:"MetricsAddress"`
	DataDir            string `toml:"DataDir"`
	NetworkName        string `toml:"NetworkName"`
	OperatorKeystore   string `toml:"OperatorKeystore"`
	FeeCollector       string `toml:"FeeCollector"`
	TicksPerDay        uint64 `toml:"TicksPerDay"`
	TickIntervalMillis uint64 `toml:"TickIntervalMillis"`
}

// Load reads the configuration from the given path, creating a default file
// (and an operator keystore) on first run.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}

	if err := ensureKeystore(path, cfg); err != nil {
		return nil, err
	}

	if strings.TrimSpace(cfg.NetworkName) == "" {
		cfg.NetworkName = "spn-local"
	}
	if cfg.TicksPerDay == 0 {
		cfg.TicksPerDay = 86_400
	}
	if cfg.TickIntervalMillis == 0 {
		cfg.TickIntervalMillis = 1000
	}
	if strings.TrimSpace(cfg.FeeCollector) != "" {
		if _, err := crypto.DecodeAddress(cfg.FeeCollector); err != nil {
			return nil, fmt.Errorf("config: invalid FeeCollector address: %w", err)
		}
	}

	return cfg, nil
}

// FeeCollectorAddress decodes the configured fee collector. When the config
// leaves it empty, the operator key's address is used.
func (c *Config) FeeCollectorAddress() ([20]byte, error) {
	var out [20]byte
	trimmed := strings.TrimSpace(c.FeeCollector)
	if trimmed == "" {
		key, err := crypto.LoadFromKeystore(c.OperatorKeystore, "")
		if err != nil {
			return out, fmt.Errorf("config: load operator keystore: %w", err)
		}
		copy(out[:], key.PubKey().Address().Bytes())
		return out, nil
	}
	addr, err := crypto.DecodeAddress(trimmed)
	if err != nil {
		return out, err
	}
	copy(out[:], addr.Bytes())
	return out, nil
}

func ensureKeystore(configPath string, cfg *Config) error {
	keystorePath := cfg.OperatorKeystore
	if keystorePath == "" {
		keystorePath = defaultKeystorePath(configPath)
	}

	if _, err := os.Stat(keystorePath); os.IsNotExist(err) {
		key, genErr := crypto.GeneratePrivateKey()
		if genErr != nil {
			return genErr
		}
		if err := crypto.SaveToKeystore(keystorePath, key, ""); err != nil {
			return err
		}
	} else if err != nil {
		return err
	}

	if cfg.OperatorKeystore != keystorePath {
		cfg.OperatorKeystore = keystorePath
		return persist(configPath, cfg)
	}

	return nil
}

// createDefault creates and saves a default configuration file.
func createDefault(path string) (*Config, error) {
	key, err := crypto.GeneratePrivateKey()
	if err != nil {
		return nil, err
	}

	keystorePath := defaultKeystorePath(path)
	if err := crypto.SaveToKeystore(keystorePath, key, ""); err != nil {
		return nil, err
	}

	cfg := &Config{
		RPCAddress:         ":8080",
		MetricsAddress:     ":9090",
		DataDir:            "./spn-data",
		NetworkName:        "spn-local",
		OperatorKeystore:   keystorePath,
		TicksPerDay:        86_400,
		TickIntervalMillis: 1000,
	}

	if err := persist(path, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func persist(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}

func defaultKeystorePath(configPath string) string {
	dir := filepath.Dir(configPath)
	if dir == "." || dir == "" {
		dir = ""
	}
	return filepath.Join(dir, "operator.keystore")
}
