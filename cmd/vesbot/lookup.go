package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/WessleyAI/vesbot/engine/domain"
	"github.com/WessleyAI/vesbot/engine/report"
	"github.com/spf13/cobra"
)

var lookupJSON bool

var lookupCmd = &cobra.Command{
	Use:   "lookup REGISTRATION",
	Short: "Look up a single registration",
	Long: `Queries every data source for the registration and prints the merged
report. Sources that fail are listed in the footer.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runLookup,
}

func init() {
	lookupCmd.Flags().BoolVar(&lookupJSON, "json", false, "output the report as JSON")
	rootCmd.AddCommand(lookupCmd)
}

func runLookup(cmd *cobra.Command, args []string) error {
	// Logs go to stderr so stdout carries only the report.
	logger := newLogger(os.Stderr)
	a, err := buildApp(loadConfig(), logger)
	if err != nil {
		return err
	}
	defer a.Close()

	raw := strings.Join(args, " ")
	r, err := a.svc.Lookup(cmd.Context(), raw)
	switch {
	case errors.Is(err, domain.ErrInvalidRegistration):
		return fmt.Errorf("registration %q failed validation", domain.Sanitise(raw))
	case errors.Is(err, domain.ErrNoDataAvailable):
		return fmt.Errorf("vehicle not found: is %s correct?", domain.Sanitise(raw))
	case err != nil:
		return fmt.Errorf("lookup failed: %w", err)
	}

	if lookupJSON {
		return printJSON(cmd, r)
	}
	cmd.Print(r.Text())
	return nil
}

func printJSON(cmd *cobra.Command, r *report.Report) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	cmd.Println(string(data))
	return nil
}
