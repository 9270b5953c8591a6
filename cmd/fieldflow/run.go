/*
 * Copyright (c) 2025-present unTill Software Development Group B.V.
 */

package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var errExpectationsFailed = errors.New("expectations failed")

func newRunCmd(params *fieldflowParams) *cobra.Command {
	printRecords := false
	cmd := &cobra.Command{
		Use:   "run scenario.yaml",
		Short: "Applies scenario and checks computed values",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := readConfig(params)
			if err != nil {
				return err
			}
			s, err := readScenario(args[0])
			if err != nil {
				return err
			}
			e, _, cleanup, err := openEngine(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			out := cmd.OutOrStdout()
			r := newRunner(e)
			if err := r.run(cmd.Context(), s, out); err != nil {
				return err
			}
			if printRecords {
				if err := r.print(cmd.Context(), s, out); err != nil {
					return err
				}
			}
			if r.failed > 0 {
				return fmt.Errorf("%d %w", r.failed, errExpectationsFailed)
			}
			fmt.Fprintln(out, green("all expectations met"))
			return nil
		},
	}
	cmd.Flags().BoolVarP(&printRecords, "print", "p", false, "print records after scenario")
	return cmd
}
