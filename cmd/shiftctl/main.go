// Command shiftctl reads the production reference lists and submits shift
// entries against a running shift-entry server.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"shift-production/internal/client"
)

var (
	apiURL     string
	timeout    time.Duration
	submitUser string
	submitPass string
	verbose    bool
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "shiftctl",
		Short:         "Shift production entry client",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&apiURL, "api", envOr("SHIFT_API", "http://localhost:3001"), "base URL of the shift-entry server")
	root.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "overall timeout for one command")
	root.PersistentFlags().StringVar(&submitUser, "user", os.Getenv("SUBMIT_LOGIN"), "basic auth user for submissions")
	root.PersistentFlags().StringVar(&submitPass, "password", os.Getenv("SUBMIT_PASS"), "basic auth password for submissions")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log debug output to stderr")

	root.AddCommand(
		newTypesCmd(),
		newMachinesCmd(),
		newItemsCmd(),
		newPeopleCmd(),
		newEntriesCmd(),
		newSubmitCmd(),
	)
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func newClient() *client.Client {
	return client.New(apiURL, &http.Client{Timeout: timeout}).WithBasicAuth(submitUser, submitPass)
}

func newLogger(cmd *cobra.Command) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
}

func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), timeout)
}
