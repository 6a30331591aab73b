package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/ncruces/go-strftime"

	rodigy "rodigy/pkg/rodigy"
)

func runHistory(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return usageError("history requires an optimizer name and an action: show|clear|prune")
	}
	optimizer, action := args[0], args[1]

	fs := flag.NewFlagSet("history "+action, flag.ContinueOnError)
	global := bindGlobalFlags(fs)
	var ttlToken string
	fs.StringVar(&ttlToken, "TTL", "", "time to live, e.g. 30d, 12h or 15m (default from settings)")
	fs.StringVar(&ttlToken, "ttl", "", "alias for --TTL")
	jsonOut := fs.Bool("json", false, "emit entries as JSON")
	timeFormat := fs.String("time-format", "", "strftime layout for timestamps (default RFC 3339)")
	positional, err := parseInterspersed(fs, args[2:])
	if err != nil {
		return err
	}
	if len(positional) != 0 {
		return usageError(fmt.Sprintf("unexpected arguments: %v", positional))
	}
	switch action {
	case "show", "clear", "prune":
	default:
		return usageError(fmt.Sprintf("unknown history action: %s", action))
	}

	client, s, err := openClient(ctx, global)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	ttl := s.TTL()
	if ttlToken != "" {
		if ttl, err = rodigy.ParseTTL(ttlToken); err != nil {
			return err
		}
	}

	switch action {
	case "show":
		entries, err := client.History(ctx, optimizer, &ttl)
		if err != nil {
			return err
		}
		if err := printHistory(optimizer, ttl, entries, *jsonOut, *timeFormat); err != nil {
			return err
		}
		_, err = client.PruneHistory(ctx, optimizer, ttl)
		return err
	case "clear":
		if err := client.ClearHistory(ctx, optimizer); err != nil {
			return err
		}
		fmt.Printf("history for %s cleared\n", optimizer)
		return nil
	default:
		removed, err := client.PruneHistory(ctx, optimizer, ttl)
		if err != nil {
			return err
		}
		fmt.Printf("pruned %d entries older than %s for %s\n", removed, ttl, optimizer)
		return nil
	}
}

func printHistory(optimizer string, ttl rodigy.TTL, entries []rodigy.HistoryEntry, jsonOut bool, layout string) error {
	if jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}

	fmt.Printf("history for %s (last %s): %d entries\n", optimizer, ttl, len(entries))
	for _, entry := range entries {
		config := entry.Config()
		if config == "" {
			config = "-"
		}
		params, err := json.Marshal(entry.Parameters)
		if err != nil {
			return err
		}
		fmt.Printf("- %s (%s) config=%s caller=%s:%d %s params=%s\n",
			formatTimestamp(entry.Timestamp, layout),
			humanize.Time(entry.Timestamp),
			config,
			entry.Caller.File,
			entry.Caller.Line,
			entry.Caller.Function,
			params,
		)
	}
	return nil
}

func formatTimestamp(t time.Time, layout string) string {
	if layout == "" {
		return t.UTC().Format(time.RFC3339Nano)
	}
	return strftime.Format(layout, t.UTC())
}
