package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/google/angle-sub000/internal/script"
)

var encodeOutput string

func init() {
	encodeCmd.Flags().StringVarP(&encodeOutput, "output", "o", "", "output file (default: the script name with "+script.ExtMsgpack+")")
}

var encodeCmd = &cobra.Command{
	Use:   "encode <script>",
	Short: "Convert a script to the msgpack format",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := script.Load(args[0])
		if err != nil {
			return err
		}
		out := encodeOutput
		if out == "" {
			out = msgpackName(args[0])
		}
		if err := writeMsgpack(out, s); err != nil {
			return err
		}
		quiet, err := cmd.Root().PersistentFlags().GetBool("quiet")
		if err != nil {
			return fmt.Errorf("failed to get quiet flag: %w", err)
		}
		if !quiet {
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", out)
		}
		return nil
	},
}

func msgpackName(path string) string {
	return strings.TrimSuffix(path, script.ExtTOML) + script.ExtMsgpack
}

func writeMsgpack(path string, s *script.Script) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return script.EncodeMsgpack(f, s)
}
