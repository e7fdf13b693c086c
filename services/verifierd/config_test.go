package verifierd

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfigFile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	path := writeConfigFile(t, `
node_rpc: http://localhost:8080
oracle_key: abcd1234
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.ListenAddress != ":8086" {
		t.Fatalf("listen = %q", cfg.ListenAddress)
	}
	if cfg.PassThreshold != DefaultPassThreshold {
		t.Fatalf("threshold = %v", cfg.PassThreshold)
	}
	if cfg.Weights != DefaultWeights() {
		t.Fatalf("weights = %+v", cfg.Weights)
	}
	if cfg.RequestTimeout != 15*time.Second {
		t.Fatalf("timeout = %v", cfg.RequestTimeout)
	}
}

func TestLoadConfigRequiresNodeRPC(t *testing.T) {
	path := writeConfigFile(t, `
oracle_key: abcd1234
`)
	if _, err := LoadConfig(path); err == nil {
		t.Fatalf("missing node_rpc accepted")
	}
}

func TestLoadConfigOracleKeySources(t *testing.T) {
	t.Run("inline", func(t *testing.T) {
		path := writeConfigFile(t, `
node_rpc: http://localhost:8080
oracle_key: " abcd1234 "
`)
		cfg, err := LoadConfig(path)
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if cfg.OracleKey != "abcd1234" {
			t.Fatalf("oracle key = %q", cfg.OracleKey)
		}
	})

	t.Run("env", func(t *testing.T) {
		t.Setenv("VERIFIERD_TEST_ORACLE_KEY", "feedbeef")
		path := writeConfigFile(t, `
node_rpc: http://localhost:8080
oracle_key_env: VERIFIERD_TEST_ORACLE_KEY
`)
		cfg, err := LoadConfig(path)
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if cfg.OracleKey != "feedbeef" {
			t.Fatalf("oracle key = %q", cfg.OracleKey)
		}
	})

	t.Run("file", func(t *testing.T) {
		keyPath := filepath.Join(t.TempDir(), "oracle.key")
		if err := os.WriteFile(keyPath, []byte("cafebabe\n"), 0o600); err != nil {
			t.Fatalf("write key: %v", err)
		}
		path := writeConfigFile(t, `
node_rpc: http://localhost:8080
oracle_key_file: `+keyPath+`
`)
		cfg, err := LoadConfig(path)
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if cfg.OracleKey != "cafebabe" {
			t.Fatalf("oracle key = %q", cfg.OracleKey)
		}
	})

	t.Run("missing", func(t *testing.T) {
		path := writeConfigFile(t, `
node_rpc: http://localhost:8080
`)
		if _, err := LoadConfig(path); err == nil {
			t.Fatalf("missing oracle key accepted")
		}
	})
}

func TestLoadConfigRejectsBadWeights(t *testing.T) {
	path := writeConfigFile(t, `
node_rpc: http://localhost:8080
oracle_key: abcd1234
weights:
  follower_authenticity: 0.9
  engagement_quality: 0.9
  velocity: 0.1
  geo_alignment: 0.1
`)
	if _, err := LoadConfig(path); err == nil {
		t.Fatalf("weights summing above 1.0 accepted")
	}
}

func TestLoadConfigNodeTokenFromEnv(t *testing.T) {
	t.Setenv("VERIFIERD_TEST_RPC_TOKEN", "node-secret")
	path := writeConfigFile(t, `
node_rpc: http://localhost:8080
node_rpc_token_env: VERIFIERD_TEST_RPC_TOKEN
oracle_key: abcd1234
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.NodeRPCToken != "node-secret" {
		t.Fatalf("token = %q", cfg.NodeRPCToken)
	}
}
