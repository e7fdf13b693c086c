package config

import (
	"os"
	"path/filepath"
	"testing"

	"sponsornet/crypto"
)

func TestLoadCreatesDefaultOnFirstRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.RPCAddress != ":8080" {
		t.Fatalf("RPCAddress = %q", cfg.RPCAddress)
	}
	if cfg.TicksPerDay != 86_400 {
		t.Fatalf("TicksPerDay = %d", cfg.TicksPerDay)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config file not persisted: %v", err)
	}
	if _, err := os.Stat(cfg.OperatorKeystore); err != nil {
		t.Fatalf("operator keystore not created: %v", err)
	}

	// A second load must reuse the persisted file and keystore.
	again, err := Load(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if again.OperatorKeystore != cfg.OperatorKeystore {
		t.Fatalf("keystore path changed across loads: %q vs %q", again.OperatorKeystore, cfg.OperatorKeystore)
	}
}

func TestLoadAppliesDefaultsToSparseFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	contents := `RPCAddress = ":9000"
DataDir = "` + dir + `"
`
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.RPCAddress != ":9000" {
		t.Fatalf("RPCAddress = %q", cfg.RPCAddress)
	}
	if cfg.NetworkName != "spn-local" {
		t.Fatalf("NetworkName = %q", cfg.NetworkName)
	}
	if cfg.TicksPerDay != 86_400 || cfg.TickIntervalMillis != 1000 {
		t.Fatalf("tick defaults = %d/%d", cfg.TicksPerDay, cfg.TickIntervalMillis)
	}
}

func TestLoadRejectsInvalidFeeCollector(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(`FeeCollector = "not-bech32"`+"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("invalid FeeCollector accepted")
	}
}

func TestFeeCollectorAddress(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	// Empty FeeCollector falls back to the operator key's address.
	fallback, err := cfg.FeeCollectorAddress()
	if err != nil {
		t.Fatalf("fallback address: %v", err)
	}
	key, err := crypto.LoadFromKeystore(cfg.OperatorKeystore, "")
	if err != nil {
		t.Fatalf("load keystore: %v", err)
	}
	var operator [20]byte
	copy(operator[:], key.PubKey().Address().Bytes())
	if fallback != operator {
		t.Fatalf("fallback address does not match operator key")
	}

	// An explicit address takes priority.
	explicit, err := crypto.GeneratePrivateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	cfg.FeeCollector = explicit.PubKey().Address().String()
	resolved, err := cfg.FeeCollectorAddress()
	if err != nil {
		t.Fatalf("explicit address: %v", err)
	}
	var want [20]byte
	copy(want[:], explicit.PubKey().Address().Bytes())
	if resolved != want {
		t.Fatalf("resolved address does not match configured collector")
	}
}
