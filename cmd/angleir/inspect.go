package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/google/angle-sub000/internal/ir"
	"github.com/google/angle-sub000/internal/testkit"
)

var dumpCmd = &cobra.Command{
	Use:   "dump <script>",
	Short: "Print the IR built from a script",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := buildSingle(cmd, args[0])
		if err != nil {
			return err
		}
		return ir.Dump(cmd.OutOrStdout(), res.IR)
	},
}

var checkCmd = &cobra.Command{
	Use:   "check <script>",
	Short: "Build a script and check the IR invariants",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := buildSingle(cmd, args[0])
		if err != nil {
			return err
		}
		// BuildScript already ran ir.Validate.
		if err := testkit.CheckIR(res.IR); err != nil {
			return fmt.Errorf("%s: %w", args[0], err)
		}
		quiet, err := cmd.Root().PersistentFlags().GetBool("quiet")
		if err != nil {
			return fmt.Errorf("failed to get quiet flag: %w", err)
		}
		if !quiet {
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s: %d functions, %d blocks\n",
				statusOK.Sprint("ok"), args[0], res.Stats.Functions, res.Stats.Blocks)
		}
		return nil
	},
}
