package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/syntax-syndicate/cogflow/internal/keys"
)

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Show which agent credentials are available",
	Long: `Show which of the supported agent credentials are available, from
environment variables or the credentials file. Values are never
printed, only availability.`,
	RunE: runKeys,
}

func runKeys(cmd *cobra.Command, args []string) error {
	s := keys.Summarize()

	for _, name := range s.Available {
		fmt.Printf("%-22s available (%s)\n", name, keys.Supported[name])
	}
	for _, name := range s.Missing {
		fmt.Printf("%-22s missing   (%s)\n", name, keys.Supported[name])
	}

	fmt.Printf("\n%d of %d keys available\n", len(s.Available), s.Total)
	if s.File != "" {
		fmt.Printf("Credentials file: %s\n", s.File)
	}
	return nil
}
