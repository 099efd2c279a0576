package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ninja-pay/opsdash"
	"github.com/ninja-pay/opsdash/pkg/export"
)

func openDashboard() (*opsdash.Dashboard, error) {
	return opsdash.New(nil, nil)
}

func loginCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login [email]",
		Short: "Authenticate and persist the session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dash, err := openDashboard()
			if err != nil {
				return err
			}

			fmt.Fprint(os.Stderr, "Password: ")
			password, err := bufio.NewReader(os.Stdin).ReadString('\n')
			if err != nil {
				return err
			}
			password = strings.TrimRight(password, "\r\n")

			if err := dash.Auth.Login(cmd.Context(), args[0], password); err != nil {
				return err
			}
			fmt.Printf("Logged in as %s\n", dash.Auth.Current().Email)
			return nil
		},
	}
	return cmd
}

func paymentsCmd() *cobra.Command {
	var csvOut string
	var page int

	cmd := &cobra.Command{
		Use:   "payments",
		Short: "List payments in the current filter window",
		RunE: func(cmd *cobra.Command, args []string) error {
			dash, err := openDashboard()
			if err != nil {
				return err
			}
			if err := dash.Engine.LoadPayments(cmd.Context()); err != nil {
				return err
			}

			if csvOut != "" {
				source := dash.Engine.PaymentsSource()
				path := csvOut
				if path == "-" {
					return export.WritePaymentsCSV(os.Stdout, source)
				}
				if strings.HasSuffix(path, "/") || isDir(path) {
					path = strings.TrimSuffix(path, "/") + "/" + export.Filename(time.Now())
				}
				file, err := os.Create(path)
				if err != nil {
					return err
				}
				defer file.Close()
				if err := export.WritePaymentsCSV(file, source); err != nil {
					return err
				}
				fmt.Printf("Wrote %s\n", path)
				return nil
			}

			dash.Engine.SetPage(page)
			view := dash.Engine.CurrentPage()
			fmt.Printf("Payments (page %d, %d total)\n", view.Page, view.Total)
			for _, payment := range view.Items {
				fmt.Printf("  %-12s %-10s %-10s %10d %s %s\n",
					payment.ID, payment.Provider, payment.Status,
					payment.AmountMinor, payment.Currency, payment.CreatedAt)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&csvOut, "csv", "", "Write a CSV export to the given path (- for stdout)")
	cmd.Flags().IntVar(&page, "page", 1, "Page to display")
	return cmd
}

func metricsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "metrics",
		Short: "Show the headline metrics and provider leaderboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			dash, err := openDashboard()
			if err != nil {
				return err
			}
			if err := dash.Engine.LoadMetrics(cmd.Context()); err != nil {
				return err
			}
			_ = dash.Engine.LoadPayments(cmd.Context())

			fmt.Printf("Total payments: %d\n", dash.Engine.TotalPaymentsKPI())
			fmt.Printf("Success rate:   %.1f%%\n", dash.Engine.SuccessRateKPI())
			fmt.Printf("Top PSP:        %s\n", dash.Engine.TopPspLabel())

			fmt.Println("\nVolume by currency:")
			for _, entry := range dash.Engine.TotalsByCurrency() {
				fmt.Printf("  %-4s %d\n", entry.Currency, entry.AmountMinor)
			}

			fmt.Println("\nProvider leaderboard:")
			for _, entry := range dash.Engine.LeaderboardDistribution() {
				fmt.Printf("  %-10s %12d %s (%d tx)\n",
					entry.Provider, entry.TotalAmountMinor, entry.Currency, entry.Count)
			}
			return nil
		},
	}
	return cmd
}

func healthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "health",
		Short: "Poll every configured service health endpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			dash, err := openDashboard()
			if err != nil {
				return err
			}
			if err := dash.Engine.LoadHealth(cmd.Context()); err != nil {
				return err
			}

			for _, snapshot := range dash.Store.Health().Services {
				fmt.Printf("%-12s %-12s raw=%s uptime=%.0fs", snapshot.ID, snapshot.Status, snapshot.RawStatus, snapshot.UptimeSeconds)
				if snapshot.Service.Version != "" {
					fmt.Printf(" version=%s", snapshot.Service.Version)
				}
				fmt.Println()
			}
			return nil
		},
	}
	return cmd
}

func eventsCmd() *cobra.Command {
	var follow bool

	cmd := &cobra.Command{
		Use:   "events",
		Short: "Show the latest feed events",
		RunE: func(cmd *cobra.Command, args []string) error {
			dash, err := openDashboard()
			if err != nil {
				return err
			}
			if err := dash.Poller.Poll(cmd.Context()); err != nil {
				return err
			}

			printEvents(dash)
			if !follow {
				return nil
			}

			updates := dash.Store.Subscribe()
			disconnect := dash.ConnectStream()
			defer disconnect()
			for {
				select {
				case <-cmd.Context().Done():
					return nil
				case <-updates:
					printEvents(dash)
				}
			}
		},
	}

	cmd.Flags().BoolVar(&follow, "follow", false, "Keep streaming events over the websocket feed")
	return cmd
}

func printEvents(dash *opsdash.Dashboard) {
	for _, event := range dash.Store.Stream().Events {
		fmt.Printf("%s  %-24s %s\n", event.OccurredAt, event.Type, event.ID)
	}
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
