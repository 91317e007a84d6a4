// SPDX-License-Identifier: MIT

package main

import (
	"flag"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/ManuGH/chouftv/internal/config"
	"github.com/ManuGH/chouftv/internal/version"
	"gopkg.in/yaml.v3"
)

func runConfigCLI(args []string) int {
	return configCLI(args, os.Stdout, os.Stderr)
}

func configCLI(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		printConfigUsage(stderr)
		return 0
	}

	switch args[0] {
	case "validate":
		return runConfigValidate(args[1:], stdout, stderr)
	case "dump":
		return runConfigDump(args[1:], stdout, stderr)
	default:
		fmt.Fprintf(stderr, "Unknown subcommand: %s\n\n", args[0])
		printConfigUsage(stderr)
		return 2
	}
}

func printConfigUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  chouftv config validate [--file|-f config.yaml]")
	fmt.Fprintln(w, "  chouftv config dump [--file|-f config.yaml]")
}

// resolveDefaultConfigPath returns $CHOUFTV_CONFIG, or ./config.yaml when it
// exists, or "" for an environment-only setup.
func resolveDefaultConfigPath() string {
	if p := strings.TrimSpace(os.Getenv(config.EnvPrefix + "CONFIG")); p != "" {
		return p
	}
	if _, err := os.Stat("config.yaml"); err == nil {
		return "config.yaml"
	}
	return ""
}

func configFlags(name string, stderr io.Writer, args []string) (string, bool) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	var file string
	fs.StringVar(&file, "file", "", "path to configuration file")
	fs.StringVar(&file, "f", "", "path to configuration file (shorthand)")
	if err := fs.Parse(args); err != nil {
		return "", false
	}
	if p := strings.TrimSpace(file); p != "" {
		return p, true
	}
	return resolveDefaultConfigPath(), true
}

func runConfigValidate(args []string, stdout, stderr io.Writer) int {
	path, ok := configFlags("chouftv config validate", stderr, args)
	if !ok {
		return 2
	}
	if path == "" {
		fmt.Fprintln(stderr, "Error: --file is required (no config.yaml found)")
		return 2
	}

	if _, err := config.NewLoader(path, version.Version).Load(); err != nil {
		fmt.Fprintf(stderr, "Configuration error in %s:\n  %v\n", path, err)
		return 1
	}
	fmt.Fprintf(stdout, "%s is valid\n", path)
	return 0
}

// runConfigDump prints the effective configuration (defaults + file + env)
// with credentials redacted.
func runConfigDump(args []string, stdout, stderr io.Writer) int {
	path, ok := configFlags("chouftv config dump", stderr, args)
	if !ok {
		return 2
	}

	cfg, err := config.NewLoader(path, version.Version).Load()
	if err != nil {
		fmt.Fprintf(stderr, "Configuration error in %s:\n  %v\n", path, err)
		return 1
	}
	redactSecrets(&cfg)

	enc := yaml.NewEncoder(stdout)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		fmt.Fprintf(stderr, "Failed to encode YAML: %v\n", err)
		return 1
	}
	_ = enc.Close()
	return 0
}

func redactSecrets(cfg *config.AppConfig) {
	if cfg.Xtream.Password != "" {
		cfg.Xtream.Password = "***"
	}
	if cfg.Fetch.ProxyURL != "" {
		if u, err := url.Parse(cfg.Fetch.ProxyURL); err == nil && u.User != nil {
			u.User = url.User("***")
			cfg.Fetch.ProxyURL = u.String()
		}
	}
}
