package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "node.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, "node_id: node-1\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.HeartbeatInterval() != 50*time.Millisecond {
		t.Errorf("expected 50ms heartbeat, got %v", cfg.HeartbeatInterval())
	}
	if cfg.ElectionTimeoutMin() != 150*time.Millisecond {
		t.Errorf("expected 150ms election min, got %v", cfg.ElectionTimeoutMin())
	}
	if cfg.ElectionTimeoutMax() != 300*time.Millisecond {
		t.Errorf("expected 300ms election max, got %v", cfg.ElectionTimeoutMax())
	}
	if cfg.ProposalTimeout() != 2*time.Second {
		t.Errorf("expected 2s proposal timeout, got %v", cfg.ProposalTimeout())
	}
	if cfg.Services.AuthAddr == "" || cfg.Services.PaymentAddr == "" {
		t.Error("expected default service addresses")
	}
}

func TestLoad_Peers(t *testing.T) {
	path := writeConfig(t, `
node_id: node-1
listen_addr: 127.0.0.1:50051
peers:
  - id: node-2
    addr: 127.0.0.1:50052
  - id: node-3
    addr: 127.0.0.1:50053
raft:
  heartbeat_interval_ms: 25
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if len(cfg.PeerIDs()) != 2 {
		t.Fatalf("expected 2 peers, got %d", len(cfg.PeerIDs()))
	}
	if cfg.PeerAddrs()["node-3"] != "127.0.0.1:50053" {
		t.Errorf("unexpected peer addr map: %v", cfg.PeerAddrs())
	}
	if cfg.HeartbeatInterval() != 25*time.Millisecond {
		t.Errorf("expected 25ms heartbeat override, got %v", cfg.HeartbeatInterval())
	}
}

func TestValidate_Errors(t *testing.T) {
	cases := []struct {
		name string
		yaml string
	}{
		{"missing node id", "listen_addr: 127.0.0.1:50051\n"},
		{"duplicate peer", "node_id: n1\npeers:\n  - id: n2\n    addr: a\n  - id: n2\n    addr: b\n"},
		{"peer without addr", "node_id: n1\npeers:\n  - id: n2\n"},
		{"inverted election window", "node_id: n1\nraft:\n  election_timeout_min_ms: 300\n  election_timeout_max_ms: 150\n"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeConfig(t, tc.yaml)
			if _, err := Load(path); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}
