// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command asn1dump feeds a file through the template decoder using a small
// built-in generic descriptor and prints the resulting value tree. It exists
// to exercise [kowi.dev/asn1/template] end to end against arbitrary BER/DER
// input without requiring a caller to hand-build an item descriptor first.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var maxDepth int

	cmd := &cobra.Command{
		Use:           "asn1dump <file>",
		Short:         "Decode and print a BER/DER-encoded file",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("asn1dump: %w", err)
			}
			return dump(cmd.OutOrStdout(), data, maxDepth)
		},
	}
	cmd.Flags().IntVar(&maxDepth, "max-depth", 16,
		"stop descending into nested SEQUENCE/SET content past this many levels")
	return cmd
}
