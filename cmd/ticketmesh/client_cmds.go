package main

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/ticketmesh/ticketmesh/pkg/client"
	"github.com/ticketmesh/ticketmesh/pkg/rpc"
)

const clientTimeout = 10 * time.Second

func peerList(cmd *cobra.Command) []string {
	peers, _ := cmd.Flags().GetString("peers")
	var addrs []string
	for _, addr := range strings.Split(peers, ",") {
		if addr = strings.TrimSpace(addr); addr != "" {
			addrs = append(addrs, addr)
		}
	}
	return addrs
}

func addPeersFlag(cmds ...*cobra.Command) {
	for _, c := range cmds {
		c.Flags().String("peers", "127.0.0.1:50051", "Comma-separated booking node addresses")
	}
}

var registerCmd = &cobra.Command{
	Use:   "register <email> <password>",
	Short: "Register a new user account",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		authAddr, _ := cmd.Flags().GetString("auth")
		conn, err := rpc.Dial(authAddr)
		if err != nil {
			return err
		}
		defer conn.Close()

		ctx, cancel := context.WithTimeout(context.Background(), clientTimeout)
		defer cancel()
		resp, err := rpc.NewAuthClient(conn).Register(ctx, &rpc.RegisterRequest{
			Email:    args[0],
			Password: args[1],
		})
		if err != nil {
			return err
		}
		fmt.Println(resp.Message)
		return nil
	},
}

var loginCmd = &cobra.Command{
	Use:   "login <email> <password>",
	Short: "Log in and print a session token",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		authAddr, _ := cmd.Flags().GetString("auth")
		conn, err := rpc.Dial(authAddr)
		if err != nil {
			return err
		}
		defer conn.Close()

		ctx, cancel := context.WithTimeout(context.Background(), clientTimeout)
		defer cancel()
		resp, err := rpc.NewAuthClient(conn).Login(ctx, &rpc.LoginRequest{
			Email:    args[0],
			Password: args[1],
		})
		if err != nil {
			return err
		}
		if !resp.Success {
			return fmt.Errorf("%s", resp.Message)
		}
		fmt.Printf("Token: %s\n", resp.Session.Token)
		return nil
	},
}

var addShowCmd = &cobra.Command{
	Use:   "add-show <show-id> <total-seats> <price-cents>",
	Short: "Add a show to the catalog (admin only)",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		token, _ := cmd.Flags().GetString("token")
		totalSeats, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid seat count %q", args[1])
		}
		priceCents, err := strconv.ParseInt(args[2], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid price %q", args[2])
		}

		c := client.New(peerList(cmd))
		defer c.Close()

		ctx, cancel := context.WithTimeout(context.Background(), clientTimeout)
		defer cancel()
		resp, err := c.AddShow(ctx, token, args[0], totalSeats, priceCents)
		if err != nil {
			return err
		}
		fmt.Println(resp.Message)
		return nil
	},
}

var bookCmd = &cobra.Command{
	Use:   "book <show-id> <seat-id>",
	Short: "Book a seat",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		token, _ := cmd.Flags().GetString("token")
		card, _ := cmd.Flags().GetString("card")
		seatID, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid seat id %q", args[1])
		}

		c := client.New(peerList(cmd))
		defer c.Close()

		ctx, cancel := context.WithTimeout(context.Background(), clientTimeout)
		defer cancel()
		resp, err := c.BookSeat(ctx, token, args[0], seatID, card)
		if err != nil {
			return err
		}
		if !resp.Success {
			return fmt.Errorf("%s", resp.Message)
		}
		fmt.Printf("%s\nBooking ID: %s\n", resp.Message, resp.BookingID)
		return nil
	},
}

var releaseCmd = &cobra.Command{
	Use:   "release <show-id> <seat-id>",
	Short: "Release a reserved seat (admin only)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		token, _ := cmd.Flags().GetString("token")
		seatID, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid seat id %q", args[1])
		}

		c := client.New(peerList(cmd))
		defer c.Close()

		ctx, cancel := context.WithTimeout(context.Background(), clientTimeout)
		defer cancel()
		resp, err := c.ReleaseSeat(ctx, token, args[0], seatID)
		if err != nil {
			return err
		}
		fmt.Println(resp.Message)
		return nil
	},
}

var seatCmd = &cobra.Command{
	Use:   "seat <show-id> <seat-id>",
	Short: "Query a single seat",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		seatID, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid seat id %q", args[1])
		}

		c := client.New(peerList(cmd))
		defer c.Close()

		ctx, cancel := context.WithTimeout(context.Background(), clientTimeout)
		defer cancel()
		resp, err := c.QuerySeat(ctx, args[0], seatID)
		if err != nil {
			return err
		}
		seat := resp.Seat
		if resp.Available {
			fmt.Printf("Seat %d of %s is available (%d cents)\n", seat.SeatID, seat.ShowID, seat.PriceCents)
		} else {
			fmt.Printf("Seat %d of %s is reserved by %s (booking %s)\n",
				seat.SeatID, seat.ShowID, seat.ReservedBy, seat.BookingID)
		}
		return nil
	},
}

var seatsCmd = &cobra.Command{
	Use:   "seats <show-id>",
	Short: "List all seats of a show",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := client.New(peerList(cmd))
		defer c.Close()

		ctx, cancel := context.WithTimeout(context.Background(), clientTimeout)
		defer cancel()

		token := 0
		for {
			resp, err := c.ListSeats(ctx, args[0], 0, token)
			if err != nil {
				return err
			}
			for _, seat := range resp.Seats {
				state := "available"
				if seat.Reserved {
					state = "reserved by " + seat.ReservedBy
				}
				fmt.Printf("  seat %-4d %s\n", seat.SeatID, state)
			}
			if resp.NextPageToken == 0 {
				return nil
			}
			token = resp.NextPageToken
		}
	},
}

var showsCmd = &cobra.Command{
	Use:   "shows",
	Short: "List the show catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := client.New(peerList(cmd))
		defer c.Close()

		ctx, cancel := context.WithTimeout(context.Background(), clientTimeout)
		defer cancel()
		resp, err := c.ListShows(ctx)
		if err != nil {
			return err
		}
		if len(resp.Shows) == 0 {
			fmt.Println("No shows in the catalog.")
			return nil
		}
		for _, show := range resp.Shows {
			fmt.Printf("  %-20s %4d/%d seats available, %d cents\n",
				show.ShowID, show.AvailableSeats, show.TotalSeats, show.PriceCents)
		}
		return nil
	},
}

var txnCmd = &cobra.Command{
	Use:   "txn <transaction-id>",
	Short: "Query a payment transaction",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		paymentAddr, _ := cmd.Flags().GetString("payment")
		conn, err := rpc.Dial(paymentAddr)
		if err != nil {
			return err
		}
		defer conn.Close()

		ctx, cancel := context.WithTimeout(context.Background(), clientTimeout)
		defer cancel()
		resp, err := rpc.NewPaymentClient(conn).QueryTransaction(ctx, &rpc.QueryTransactionRequest{
			TransactionID: args[0],
		})
		if err != nil {
			return err
		}
		fmt.Printf("Transaction %s: %s", resp.TransactionID, resp.Status)
		if resp.AmountCents > 0 {
			fmt.Printf(" (%d %s)", resp.AmountCents, resp.Currency)
		}
		fmt.Println()
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the consensus status of every node",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := client.New(peerList(cmd))
		defer c.Close()

		ctx, cancel := context.WithTimeout(context.Background(), clientTimeout)
		defer cancel()

		statuses := c.ClusterStatus(ctx)
		addrs := make([]string, 0, len(statuses))
		for addr := range statuses {
			addrs = append(addrs, addr)
		}
		sort.Strings(addrs)
		for _, addr := range addrs {
			st := statuses[addr]
			if st == nil {
				fmt.Printf("  %-22s unreachable\n", addr)
				continue
			}
			fmt.Printf("  %-22s %s %-9s term=%d commit=%d applied=%d\n",
				addr, st.NodeID, st.Role, st.Term, st.CommitIndex, st.AppliedIndex)
		}
		return nil
	},
}

func init() {
	registerCmd.Flags().String("auth", "127.0.0.1:8000", "Auth service address")
	loginCmd.Flags().String("auth", "127.0.0.1:8000", "Auth service address")
	txnCmd.Flags().String("payment", "127.0.0.1:6000", "Payment service address")

	addPeersFlag(addShowCmd, bookCmd, releaseCmd, seatCmd, seatsCmd, showsCmd, statusCmd)

	addShowCmd.Flags().String("token", "", "Session token")
	bookCmd.Flags().String("token", "", "Session token")
	bookCmd.Flags().String("card", "4242", "Card number to charge")
	releaseCmd.Flags().String("token", "", "Session token")
}
