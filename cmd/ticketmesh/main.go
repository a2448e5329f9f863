package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Version information (set via ldflags during build)
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "ticketmesh",
	Short: "TicketMesh - Replicated ticket booking",
	Long: `TicketMesh is a replicated seat reservation service. Booking nodes
share a consensus-replicated show catalog, so every confirmed booking
survives node failures; auth and payment run as standalone services.`,
	Version: Version,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"TicketMesh version %s\nCommit: %s\nBuilt: %s\n",
		Version, Commit, BuildTime,
	))

	rootCmd.AddCommand(nodeCmd)
	rootCmd.AddCommand(authCmd)
	rootCmd.AddCommand(paymentCmd)
	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(addShowCmd)
	rootCmd.AddCommand(bookCmd)
	rootCmd.AddCommand(releaseCmd)
	rootCmd.AddCommand(seatCmd)
	rootCmd.AddCommand(seatsCmd)
	rootCmd.AddCommand(showsCmd)
	rootCmd.AddCommand(txnCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(stressCmd)
}
