package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"

	"rodigy/internal/docs"
	rodigy "rodigy/pkg/rodigy"
)

const usageText = "usage: rodigyctl <list|show|readme|config|history|version> [args] [flags]\n" +
	"  list [--json]\n" +
	"  show <optimizer> [--raw]\n" +
	"  readme [--raw]\n" +
	"  config <optimizer> get [--format json|yaml]\n" +
	"  config <optimizer> set <json>\n" +
	"  config <optimizer> add <config> <json>\n" +
	"  config <optimizer> rm <config>\n" +
	"  history <optimizer> show [--TTL 30d] [--json] [--time-format %Y-%m-%d]\n" +
	"  history <optimizer> clear\n" +
	"  history <optimizer> prune --TTL 30d\n" +
	"global flags: --store memory|file|sqlite --data-dir DIR --db-path FILE --config FILE --log-level LEVEL"

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("missing command")
	}

	switch args[0] {
	case "list":
		return runList(ctx, args[1:])
	case "show":
		return runShow(ctx, args[1:])
	case "readme":
		return runReadme(ctx, args[1:])
	case "config":
		return runConfig(ctx, args[1:])
	case "history":
		return runHistory(ctx, args[1:])
	case "version", "--version", "-v":
		fmt.Printf("rodigyctl version %s\n", rodigy.Version)
		return nil
	case "help", "--help", "-h":
		_, _ = io.WriteString(os.Stdout, usageText+"\n")
		return nil
	default:
		return usageError(fmt.Sprintf("unknown command: %s", args[0]))
	}
}

func runList(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	global := bindGlobalFlags(fs)
	jsonOut := fs.Bool("json", false, "emit optimizers as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, _, err := openClient(ctx, global)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	infos := client.Optimizers()
	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(infos)
	}

	for _, info := range infos {
		marks := ""
		if info.HasPresets {
			marks += " [presets]"
		}
		if info.HasDocs {
			marks += " [docs]"
		}
		fmt.Printf("- %-10s %s%s\n", info.Name, info.Summary, marks)
	}
	return nil
}

func runShow(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("show", flag.ContinueOnError)
	global := bindGlobalFlags(fs)
	raw := fs.Bool("raw", false, "print markdown source even on a terminal")
	positional, err := parseInterspersed(fs, args)
	if err != nil {
		return err
	}
	if len(positional) != 1 {
		return usageError("show requires exactly one optimizer name")
	}

	client, _, err := openClient(ctx, global)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	_, page, err := client.Doc(positional[0])
	if err != nil {
		return err
	}
	return writePage(page, *raw)
}

func runReadme(_ context.Context, args []string) error {
	fs := flag.NewFlagSet("readme", flag.ContinueOnError)
	bindGlobalFlags(fs)
	raw := fs.Bool("raw", false, "print markdown source even on a terminal")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 0 {
		return usageError("readme takes no arguments")
	}
	return writePage(docs.Readme(), *raw)
}

// writePage styles markdown only when stdout is a terminal.
func writePage(page []byte, raw bool) error {
	if raw || !isatty.IsTerminal(os.Stdout.Fd()) {
		_, err := os.Stdout.Write(page)
		return err
	}
	return docs.Render(os.Stdout, page, true)
}

func usageError(msg string) error {
	return fmt.Errorf("%s\n%s", msg, usageText)
}
