package main

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aspect-build/attestid/internal/logx"
	"github.com/aspect-build/attestid/internal/version"
	"github.com/spf13/cobra"
)

// devCommands is populated by dev.go (build tag "dev") with dev-only subcommands.
var devCommands []*cobra.Command

// resolveDBPath returns the registry database path from the flag or the
// ATTESTID_DB env var. Prints a warning to stderr when falling back to
// the env var. Returns an error if neither is set.
func resolveDBPath(cmd *cobra.Command, flagValue string) (string, error) {
	if cmd.Flags().Changed("db") {
		return flagValue, nil
	}
	if v := os.Getenv("ATTESTID_DB"); v != "" {
		fmt.Fprintf(os.Stderr, "attestid: WARNING: using database path from ATTESTID_DB environment variable\n")
		return v, nil
	}
	return "", fmt.Errorf("database path required: use --db flag or set ATTESTID_DB")
}

func main() {
	var (
		logLevel string
		verbose  bool
	)

	rootCmd := &cobra.Command{
		Use:     "attestid",
		Short:   "Attestid - canonical AttestationApplicationId encoding for Android key attestation",
		Version: version.Version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return logx.Configure(logLevel, verbose)
		},
	}
	rootCmd.SetVersionTemplate(version.String("attestid") + "\n")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug|info|warn|error (or ATTESTID_LOG_LEVEL)")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Enable verbose debug logs (same as --log-level debug)")

	rootCmd.AddCommand(newEncodeCmd())
	rootCmd.AddCommand(newDecodeCmd())
	rootCmd.AddCommand(newInspectCmd())
	for _, cmd := range devCommands {
		rootCmd.AddCommand(cmd)
	}

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// readInput reads the whole of path, or stdin when path is "" or "-".
func readInput(path string) ([]byte, error) {
	if path == "" || path == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

// writeOutput writes data to path, or to stdout when path is "" or "-".
func writeOutput(path string, data []byte) error {
	if path == "" || path == "-" {
		_, err := os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func formatOutput(format string, der []byte) ([]byte, error) {
	switch format {
	case "raw":
		return der, nil
	case "hex":
		return []byte(hex.EncodeToString(der) + "\n"), nil
	case "base64":
		return []byte(base64.StdEncoding.EncodeToString(der) + "\n"), nil
	default:
		return nil, fmt.Errorf("invalid output format %q (expected raw|hex|base64)", format)
	}
}

func parseInput(format string, data []byte) ([]byte, error) {
	switch format {
	case "raw":
		return data, nil
	case "hex":
		der, err := hex.DecodeString(strings.TrimSpace(string(data)))
		if err != nil {
			return nil, fmt.Errorf("decode hex input: %w", err)
		}
		return der, nil
	case "base64":
		der, err := base64.StdEncoding.DecodeString(strings.TrimSpace(string(data)))
		if err != nil {
			return nil, fmt.Errorf("decode base64 input: %w", err)
		}
		return der, nil
	default:
		return nil, fmt.Errorf("invalid input format %q (expected raw|hex|base64)", format)
	}
}
