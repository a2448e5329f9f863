package main

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"github.com/ticketmesh/ticketmesh/pkg/client"
	"google.golang.org/grpc/status"
)

var stressCmd = &cobra.Command{
	Use:   "stress <show-id> <seat-id>",
	Short: "Race concurrent bookings for one seat",
	Long: `Fire N concurrent booking attempts at the same seat and tally the
outcomes. With a healthy cluster exactly one attempt wins; everyone
else is told the seat is taken.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		token, _ := cmd.Flags().GetString("token")
		card, _ := cmd.Flags().GetString("card")
		concurrency, _ := cmd.Flags().GetInt("concurrency")
		seatID, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid seat id %q", args[1])
		}

		c := client.New(peerList(cmd))
		defer c.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		var (
			mu       sync.Mutex
			outcomes = make(map[string]int)
			wg       sync.WaitGroup
		)
		record := func(outcome string) {
			mu.Lock()
			outcomes[outcome]++
			mu.Unlock()
		}

		start := time.Now()
		for i := 0; i < concurrency; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				resp, err := c.BookSeat(ctx, token, args[0], seatID, card)
				switch {
				case err != nil:
					record("error: " + status.Code(err).String())
				case resp.Success:
					record("booked")
				default:
					record("seat taken")
				}
			}()
		}
		wg.Wait()
		elapsed := time.Since(start)

		fmt.Printf("%d attempts in %s:\n", concurrency, elapsed.Round(time.Millisecond))
		keys := make([]string, 0, len(outcomes))
		for k := range outcomes {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Printf("  %-30s %d\n", k, outcomes[k])
		}
		if outcomes["booked"] > 1 {
			return fmt.Errorf("%d attempts reported success for the same seat", outcomes["booked"])
		}
		return nil
	},
}

func init() {
	addPeersFlag(stressCmd)
	stressCmd.Flags().String("token", "", "Session token")
	stressCmd.Flags().String("card", "4242", "Card number to charge")
	stressCmd.Flags().Int("concurrency", 10, "Number of concurrent booking attempts")
}
