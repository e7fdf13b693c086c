package verifierd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config captures the runtime options for the verification daemon.
type Config struct {
	ListenAddress     string        `yaml:"listen"`
	NodeRPCURL        string        `yaml:"node_rpc"`
	NodeRPCToken      string        `yaml:"node_rpc_token"`
	NodeRPCTokenEnv   string        `yaml:"node_rpc_token_env"`
	OracleKey         string        `yaml:"oracle_key"`
	OracleKeyFile     string        `yaml:"oracle_key_file"`
	OracleKeyEnv      string        `yaml:"oracle_key_env"`
	PassThreshold     float64       `yaml:"pass_threshold"`
	Weights           Weights       `yaml:"weights"`
	RequestTimeout    time.Duration `yaml:"-"`
	RequestTimeoutSec int           `yaml:"request_timeout_seconds"`
}

// LoadConfig reads configuration from disk and applies defaults.
func LoadConfig(path string) (Config, error) {
	cfg := Config{
		ListenAddress:     ":8086",
		PassThreshold:     DefaultPassThreshold,
		Weights:           DefaultWeights(),
		RequestTimeoutSec: 15,
	}
	if strings.TrimSpace(path) == "" {
		return cfg, fmt.Errorf("config path required")
	}
	file, err := os.Open(path)
	if err != nil {
		return cfg, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()
	decoder := yaml.NewDecoder(file)
	if err := decoder.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	cfg.ListenAddress = strings.TrimSpace(cfg.ListenAddress)
	if cfg.ListenAddress == "" {
		cfg.ListenAddress = ":8086"
	}
	cfg.NodeRPCURL = strings.TrimSpace(cfg.NodeRPCURL)
	if cfg.NodeRPCURL == "" {
		return Config{}, fmt.Errorf("node_rpc required")
	}
	cfg.NodeRPCToken = strings.TrimSpace(cfg.NodeRPCToken)
	cfg.NodeRPCTokenEnv = strings.TrimSpace(cfg.NodeRPCTokenEnv)
	if cfg.NodeRPCToken == "" && cfg.NodeRPCTokenEnv != "" {
		cfg.NodeRPCToken = strings.TrimSpace(os.Getenv(cfg.NodeRPCTokenEnv))
	}
	cfg.OracleKey = strings.TrimSpace(cfg.OracleKey)
	cfg.OracleKeyFile = strings.TrimSpace(cfg.OracleKeyFile)
	cfg.OracleKeyEnv = strings.TrimSpace(cfg.OracleKeyEnv)
	if cfg.OracleKey == "" {
		switch {
		case cfg.OracleKeyEnv != "":
			value := strings.TrimSpace(os.Getenv(cfg.OracleKeyEnv))
			if value == "" {
				return Config{}, fmt.Errorf("oracle key env %s is empty", cfg.OracleKeyEnv)
			}
			cfg.OracleKey = value
		case cfg.OracleKeyFile != "":
			raw, err := os.ReadFile(cfg.OracleKeyFile)
			if err != nil {
				return Config{}, fmt.Errorf("read oracle key file: %w", err)
			}
			cfg.OracleKey = strings.TrimSpace(string(raw))
		default:
			return Config{}, fmt.Errorf("oracle key required (oracle_key, oracle_key_file or oracle_key_env)")
		}
	}
	if cfg.PassThreshold <= 0 {
		cfg.PassThreshold = DefaultPassThreshold
	}
	zero := Weights{}
	if cfg.Weights == zero {
		cfg.Weights = DefaultWeights()
	}
	if err := cfg.Weights.Validate(); err != nil {
		return Config{}, err
	}
	if cfg.RequestTimeoutSec <= 0 {
		cfg.RequestTimeoutSec = 15
	}
	cfg.RequestTimeout = time.Duration(cfg.RequestTimeoutSec) * time.Second
	return cfg, nil
}
