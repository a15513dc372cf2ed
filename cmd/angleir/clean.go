package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/google/angle-sub000/internal/driver"
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove the build cache",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cache, err := driver.OpenDiskCache("angleir")
		if err != nil {
			return fmt.Errorf("failed to open build cache: %w", err)
		}
		if err := cache.DropAll(); err != nil {
			return fmt.Errorf("failed to remove %q: %w", cache.Dir(), err)
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", cache.Dir())
		return nil
	},
}
