package main

import (
	"context"
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/auralux/spectra/decode"
)

var probeCmd = &cobra.Command{
	Use:   "probe [file]",
	Short: "Print the audio properties of a file without decoding it",
	Args:  cobra.ExactArgs(1),
	RunE:  runProbe,
}

func init() {
	rootCmd.AddCommand(probeCmd)
}

func runProbe(cmd *cobra.Command, args []string) error {
	dec := decode.NewDecoder(decode.DefaultConfig())

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	info, err := dec.ProbeFile(ctx, args[0])
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(info)
}
