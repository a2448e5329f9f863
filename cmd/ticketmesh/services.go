package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/ticketmesh/ticketmesh/pkg/auth"
	"github.com/ticketmesh/ticketmesh/pkg/log"
	"github.com/ticketmesh/ticketmesh/pkg/metrics"
	"github.com/ticketmesh/ticketmesh/pkg/payment"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Run the authentication service",
	RunE: func(cmd *cobra.Command, args []string) error {
		listen, _ := cmd.Flags().GetString("listen")
		dataPath, _ := cmd.Flags().GetString("data")
		adminPassword, _ := cmd.Flags().GetString("admin-password")
		logLevel, _ := cmd.Flags().GetString("log-level")

		log.Init(log.Config{Level: log.Level(logLevel)})

		service, err := auth.NewService(dataPath, adminPassword)
		if err != nil {
			return err
		}
		server := auth.NewServer(service)
		fmt.Printf("Auth service listening on %s\n", listen)
		return serveUntilSignal(func() error { return server.Start(listen) }, server.Stop)
	},
}

var paymentCmd = &cobra.Command{
	Use:   "payment",
	Short: "Run the payment service",
	RunE: func(cmd *cobra.Command, args []string) error {
		listen, _ := cmd.Flags().GetString("listen")
		dataPath, _ := cmd.Flags().GetString("data")
		logLevel, _ := cmd.Flags().GetString("log-level")

		log.Init(log.Config{Level: log.Level(logLevel)})
		metrics.Register()

		service, err := payment.NewService(dataPath)
		if err != nil {
			return err
		}
		server := payment.NewServer(service)
		fmt.Printf("Payment service listening on %s\n", listen)
		return serveUntilSignal(func() error { return server.Start(listen) }, server.Stop)
	},
}

func init() {
	authCmd.Flags().String("listen", "127.0.0.1:8000", "Address to listen on")
	authCmd.Flags().String("data", "auth.json", "Path to the user/session state file")
	authCmd.Flags().String("admin-password", "", "Password for the administrator account (default \"admin\")")
	authCmd.Flags().String("log-level", "info", "Log level (debug, info, warn, error)")

	paymentCmd.Flags().String("listen", "127.0.0.1:6000", "Address to listen on")
	paymentCmd.Flags().String("data", "transactions.json", "Path to the transaction ledger file")
	paymentCmd.Flags().String("log-level", "info", "Log level (debug, info, warn, error)")
}

// serveUntilSignal runs a blocking server and stops it on SIGINT/SIGTERM.
func serveUntilSignal(start func() error, stop func()) error {
	errCh := make(chan error, 1)
	go func() { errCh <- start() }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case <-sigCh:
		stop()
		return nil
	}
}
