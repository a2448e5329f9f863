package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/ticketmesh/ticketmesh/pkg/api"
	"github.com/ticketmesh/ticketmesh/pkg/booking"
	"github.com/ticketmesh/ticketmesh/pkg/config"
	"github.com/ticketmesh/ticketmesh/pkg/events"
	"github.com/ticketmesh/ticketmesh/pkg/log"
	"github.com/ticketmesh/ticketmesh/pkg/metrics"
	"github.com/ticketmesh/ticketmesh/pkg/raft"
	"github.com/ticketmesh/ticketmesh/pkg/rpc"
	"github.com/ticketmesh/ticketmesh/pkg/seats"
)

var nodeCmd = &cobra.Command{
	Use:   "node",
	Short: "Run a booking node",
	Long: `Run a booking node: the client-facing gRPC API, the consensus
participant, and the replicated seat catalog, all in one process.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Flags().GetString("config")
		return runNode(configPath)
	},
}

func init() {
	nodeCmd.Flags().String("config", "node.yaml", "Path to the node configuration file")
}

func runNode(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	log.Init(log.Config{
		Level:      log.Level(cfg.Log.Level),
		JSONOutput: cfg.Log.JSON,
	})
	logger := log.WithNodeID(cfg.NodeID)

	metrics.Register()
	metrics.SetVersion(Version)

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	broker := events.NewBroker()
	broker.Start()
	defer broker.Stop()

	collector := metrics.NewCollector(broker)
	collector.Start()
	defer collector.Stop()

	store, err := seats.OpenStore(filepath.Join(cfg.DataDir, "catalog.db"))
	if err != nil {
		return fmt.Errorf("failed to open catalog store: %w", err)
	}
	defer store.Close()

	machine, err := seats.NewStateMachine(store, broker)
	if err != nil {
		return fmt.Errorf("failed to restore catalog: %w", err)
	}

	wal, err := raft.OpenLog(filepath.Join(cfg.DataDir, "raft-log.db"))
	if err != nil {
		return fmt.Errorf("failed to open consensus log: %w", err)
	}
	defer wal.Close()

	transport := rpc.NewRaftTransport(cfg.PeerAddrs())
	defer transport.Close()

	node := raft.NewNode(raft.Config{
		NodeID:             cfg.NodeID,
		Peers:              cfg.PeerIDs(),
		HeartbeatInterval:  cfg.HeartbeatInterval(),
		ElectionTimeoutMin: cfg.ElectionTimeoutMin(),
		ElectionTimeoutMax: cfg.ElectionTimeoutMax(),
		ProposalTimeout:    cfg.ProposalTimeout(),
	}, wal, machine, transport, broker)

	authConn, err := rpc.Dial(cfg.Services.AuthAddr)
	if err != nil {
		return fmt.Errorf("failed to dial auth service: %w", err)
	}
	defer authConn.Close()
	paymentConn, err := rpc.Dial(cfg.Services.PaymentAddr)
	if err != nil {
		return fmt.Errorf("failed to dial payment service: %w", err)
	}
	defer paymentConn.Close()

	coordinator := booking.NewCoordinator(
		node,
		machine,
		rpc.NewAuthClient(authConn),
		rpc.NewPaymentClient(paymentConn),
		broker,
	)

	server := api.NewServer(coordinator, node)
	errCh := make(chan error, 1)
	go func() {
		if err := server.Start(cfg.ListenAddr); err != nil {
			errCh <- fmt.Errorf("gRPC server error: %w", err)
		}
	}()

	if cfg.MetricsAddr != "" {
		go func() {
			if err := metrics.Serve(cfg.MetricsAddr); err != nil {
				logger.Error().Err(err).Msg("metrics server stopped")
			}
		}()
	}

	node.Start()
	metrics.RegisterComponent("consensus", true, "")
	metrics.RegisterComponent("catalog", true, "")

	logger.Info().
		Str("listen_addr", cfg.ListenAddr).
		Int("peers", len(cfg.Peers)).
		Msg("booking node running")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		node.Stop()
		return err
	case sig := <-sigCh:
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	node.Stop()
	server.Stop()
	return nil
}
