package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// Set by the release build via -ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// formatVersion prefixes numeric versions with 'v'.
func formatVersion(ver string) string {
	if ver != "" && strings.IndexAny(ver[:1], "0123456789") == 0 {
		return "v" + ver
	}
	return ver
}

var rootCmd = &cobra.Command{
	Use:   "blip",
	Short: "Bluetooth Low Energy peripheral tool",
	Long: `Bluetooth Low Energy (BLE) peripheral that advertises a GATT service and:

- Publishes a counter to subscribed centrals via notifications or indications
- Backs off while the stack's transmit queue is full and resumes when it drains
- Echoes and stores values written by centrals

Ideal for exercising BLE central apps and firmware against a predictable peripheral.`,
	Version:       fmt.Sprintf("%s (commit %s, built %s)", formatVersion(version), commit, date),
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	rootCmd.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error); overrides the config file")
	rootCmd.PersistentFlags().String("config", "", "Path to a YAML config file")
	rootCmd.Flags().BoolP("version", "v", false, "Show version information")
}

// exitCode reports err on stderr and returns the process exit status.
// Interrupts (Ctrl+C) end the command normally.
func exitCode(err error, stderr io.Writer) int {
	if err == nil || errors.Is(err, context.Canceled) {
		return 0
	}
	fmt.Fprintf(stderr, "ERROR: %s\n", FormatUserError(err))
	return 1
}

func main() {
	os.Exit(exitCode(rootCmd.Execute(), os.Stderr))
}
