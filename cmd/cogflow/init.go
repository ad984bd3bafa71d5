package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/syntax-syndicate/cogflow/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a project-local config file with the defaults",
	RunE:  runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	if config.Exists() {
		return fmt.Errorf("config already exists (project or global); edit it instead")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to build default config: %w", err)
	}
	if err := config.WriteProject(cfg); err != nil {
		return err
	}

	fmt.Printf("Wrote %s\n", config.ProjectPath())
	return nil
}
