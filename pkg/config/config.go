package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Default timer parameters. Heartbeats must fire several times within the
// minimum election window or followers start spurious elections.
const (
	DefaultHeartbeatInterval  = 50 * time.Millisecond
	DefaultElectionTimeoutMin = 150 * time.Millisecond
	DefaultElectionTimeoutMax = 300 * time.Millisecond
	DefaultProposalTimeout    = 2 * time.Second
)

// Peer identifies another booking node in the cluster.
type Peer struct {
	ID   string `yaml:"id"`
	Addr string `yaml:"addr"`
}

// RaftConfig holds consensus timer overrides, all in milliseconds.
type RaftConfig struct {
	HeartbeatIntervalMs  int `yaml:"heartbeat_interval_ms"`
	ElectionTimeoutMinMs int `yaml:"election_timeout_min_ms"`
	ElectionTimeoutMaxMs int `yaml:"election_timeout_max_ms"`
	ProposalTimeoutMs    int `yaml:"proposal_timeout_ms"`
}

// ServicesConfig points at the external auth and payment services.
type ServicesConfig struct {
	AuthAddr    string `yaml:"auth_addr"`
	PaymentAddr string `yaml:"payment_addr"`
}

// LogConfig holds logging options.
type LogConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// Config is the per-node configuration for a booking node.
type Config struct {
	NodeID      string         `yaml:"node_id"`
	ListenAddr  string         `yaml:"listen_addr"`
	MetricsAddr string         `yaml:"metrics_addr"`
	DataDir     string         `yaml:"data_dir"`
	Peers       []Peer         `yaml:"peers"`
	Raft        RaftConfig     `yaml:"raft"`
	Services    ServicesConfig `yaml:"services"`
	Log         LogConfig      `yaml:"log"`
}

// Load reads and validates a node configuration from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.ListenAddr == "" {
		c.ListenAddr = "127.0.0.1:50051"
	}
	if c.DataDir == "" {
		c.DataDir = "data"
	}
	if c.Services.AuthAddr == "" {
		c.Services.AuthAddr = "127.0.0.1:8000"
	}
	if c.Services.PaymentAddr == "" {
		c.Services.PaymentAddr = "127.0.0.1:6000"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// Validate checks the configuration for errors that would prevent the node
// from participating in the cluster.
func (c *Config) Validate() error {
	if c.NodeID == "" {
		return fmt.Errorf("config: node_id is required")
	}
	seen := map[string]bool{c.NodeID: true}
	for _, p := range c.Peers {
		if p.ID == "" || p.Addr == "" {
			return fmt.Errorf("config: peer entries need both id and addr")
		}
		if seen[p.ID] {
			return fmt.Errorf("config: duplicate node id %q", p.ID)
		}
		seen[p.ID] = true
	}
	if c.Raft.ElectionTimeoutMinMs != 0 && c.Raft.ElectionTimeoutMaxMs != 0 &&
		c.Raft.ElectionTimeoutMaxMs < c.Raft.ElectionTimeoutMinMs {
		return fmt.Errorf("config: election_timeout_max_ms must be >= election_timeout_min_ms")
	}
	return nil
}

// HeartbeatInterval returns the configured heartbeat interval or the default.
func (c *Config) HeartbeatInterval() time.Duration {
	if c.Raft.HeartbeatIntervalMs > 0 {
		return time.Duration(c.Raft.HeartbeatIntervalMs) * time.Millisecond
	}
	return DefaultHeartbeatInterval
}

// ElectionTimeoutMin returns the lower election timeout bound.
func (c *Config) ElectionTimeoutMin() time.Duration {
	if c.Raft.ElectionTimeoutMinMs > 0 {
		return time.Duration(c.Raft.ElectionTimeoutMinMs) * time.Millisecond
	}
	return DefaultElectionTimeoutMin
}

// ElectionTimeoutMax returns the upper election timeout bound.
func (c *Config) ElectionTimeoutMax() time.Duration {
	if c.Raft.ElectionTimeoutMaxMs > 0 {
		return time.Duration(c.Raft.ElectionTimeoutMaxMs) * time.Millisecond
	}
	return DefaultElectionTimeoutMax
}

// ProposalTimeout returns the end-to-end deadline for client proposals.
func (c *Config) ProposalTimeout() time.Duration {
	if c.Raft.ProposalTimeoutMs > 0 {
		return time.Duration(c.Raft.ProposalTimeoutMs) * time.Millisecond
	}
	return DefaultProposalTimeout
}

// PeerIDs returns the ids of all configured peers.
func (c *Config) PeerIDs() []string {
	ids := make([]string, 0, len(c.Peers))
	for _, p := range c.Peers {
		ids = append(ids, p.ID)
	}
	return ids
}

// PeerAddrs returns the id -> address map for the gRPC transport.
func (c *Config) PeerAddrs() map[string]string {
	addrs := make(map[string]string, len(c.Peers))
	for _, p := range c.Peers {
		addrs[p.ID] = p.Addr
	}
	return addrs
}
