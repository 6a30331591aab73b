package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	rodigy "rodigy/pkg/rodigy"
)

func runConfig(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return usageError("config requires an optimizer name and an action: get|set|add|rm")
	}
	optimizer, action := args[0], args[1]

	fs := flag.NewFlagSet("config "+action, flag.ContinueOnError)
	global := bindGlobalFlags(fs)
	format := fs.String("format", "json", "output format for get: json|yaml")
	positional, err := parseInterspersed(fs, args[2:])
	if err != nil {
		return err
	}

	var want int
	switch action {
	case "get":
		want = 0
	case "set", "rm":
		want = 1
	case "add":
		want = 2
	default:
		return usageError(fmt.Sprintf("unknown config action: %s", action))
	}
	if len(positional) != want {
		return usageError(fmt.Sprintf("config %s expects %d argument(s), got %d", action, want, len(positional)))
	}
	if action == "get" && *format != "json" && *format != "yaml" {
		return fmt.Errorf("unsupported format: %s", *format)
	}

	client, _, err := openClient(ctx, global)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	switch action {
	case "get":
		set, err := client.Configurations(ctx, optimizer)
		if err != nil {
			return err
		}
		return printConfigurations(set, *format)
	case "set":
		updates := rodigy.NewConfigurationSet()
		if err := json.Unmarshal([]byte(positional[0]), updates); err != nil {
			return fmt.Errorf("parse configurations: %w", err)
		}
		if err := client.SetConfigurations(ctx, optimizer, updates); err != nil {
			return err
		}
		fmt.Printf("updated configurations %v for %s\n", updates.Names(), optimizer)
		return nil
	case "add":
		var raw map[string]any
		if err := json.Unmarshal([]byte(positional[1]), &raw); err != nil {
			return fmt.Errorf("%w: parse configuration: %v", rodigy.ErrMalformedConfiguration, err)
		}
		if err := client.AddConfiguration(ctx, optimizer, positional[0], raw); err != nil {
			return err
		}
		fmt.Printf("added configuration %s for %s\n", positional[0], optimizer)
		return nil
	default:
		if err := client.RemoveConfiguration(ctx, optimizer, positional[0]); err != nil {
			return err
		}
		fmt.Printf("removed configuration %s for %s\n", positional[0], optimizer)
		return nil
	}
}

func printConfigurations(set *rodigy.ConfigurationSet, format string) error {
	if format == "yaml" {
		enc := yaml.NewEncoder(os.Stdout)
		enc.SetIndent(2)
		if err := enc.Encode(set); err != nil {
			return err
		}
		return enc.Close()
	}
	data, err := json.MarshalIndent(set, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
