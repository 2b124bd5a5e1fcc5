package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"coffee_shop/internal/config"
	"coffee_shop/pkg/posterix"

	"github.com/spf13/cobra"
)

var (
	flagFrom     int64
	flagTill     int64
	flagEnvelope bool
)

var rootCmd = &cobra.Command{
	Use:           "posterix",
	Short:         "Query the Posterix order-management API",
	SilenceUsage:  true,
	SilenceErrors: false,
}

var listOrdersCmd = &cobra.Command{
	Use:   "list-orders",
	Short: "Print orders created in a time window",
	Long: "Calls ListOrders for the window [--from, --till] given in unix seconds.\n" +
		"Without flags the window is the last 24 hours. POSTERIX_TOKEN and\n" +
		"POSTERIX_COMPANY are read from the environment or .env.\n" +
		"Only the result is printed unless --envelope is given.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if cfg.PosterixToken == "" {
			return errors.New("POSTERIX_TOKEN is not set")
		}

		from, till := window(time.Now(), flagFrom, flagTill)
		client := posterix.NewClient(cfg.PosterixURL, cfg.PosterixToken, cfg.PosterixCompany)
		return listOrders(cmd.Context(), cmd.OutOrStdout(), client, from, till, flagEnvelope)
	},
}

// listOrders prints the ListOrders result, or with envelope the full
// response. An RPC error is still returned after the envelope is printed.
func listOrders(ctx context.Context, w io.Writer, client *posterix.Client, from, till time.Time, envelope bool) error {
	if !envelope {
		result, err := client.ListOrders(ctx, from, till)
		if err != nil {
			return err
		}
		return printJSON(w, result)
	}

	resp, err := client.ListOrdersEnvelope(ctx, from, till)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("failed to encode response: %w", err)
	}
	if err := printJSON(w, raw); err != nil {
		return err
	}
	if resp.Error != nil {
		return resp.Error
	}
	return nil
}

func init() {
	listOrdersCmd.Flags().Int64Var(&flagFrom, "from", 0, "window start, unix seconds (default: 24h before --till)")
	listOrdersCmd.Flags().Int64Var(&flagTill, "till", 0, "window end, unix seconds (default: now)")
	listOrdersCmd.Flags().BoolVar(&flagEnvelope, "envelope", false, "print the whole JSON-RPC response, error member included")
	rootCmd.AddCommand(listOrdersCmd)
}

// window resolves the query bounds; zero flags take their defaults.
func window(now time.Time, from, till int64) (time.Time, time.Time) {
	end := now
	if till != 0 {
		end = time.Unix(till, 0)
	}
	start := end.Add(-24 * time.Hour)
	if from != 0 {
		start = time.Unix(from, 0)
	}
	return start, end
}

func printJSON(w io.Writer, raw json.RawMessage) error {
	var out bytes.Buffer
	if len(raw) == 0 {
		raw = json.RawMessage("null")
	}
	if err := json.Indent(&out, raw, "", "  "); err != nil {
		return fmt.Errorf("failed to format response: %w", err)
	}
	out.WriteByte('\n')
	_, err := out.WriteTo(w)
	return err
}
