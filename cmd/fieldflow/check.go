/*
 * Copyright (c) 2025-present unTill Software Development Group B.V.
 */

package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/voedger/fieldflow/pkg/fielddef"
)

var errFieldsErrored = errors.New("fields are errored")

func newCheckCmd(params *fieldflowParams) *cobra.Command {
	return &cobra.Command{
		Use:   "check scenario.yaml",
		Short: "Checks field definitions of scenario: references, types and cycles",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := readConfig(params)
			if err != nil {
				return err
			}
			cfg.DataDir = ""
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
			if err := r.define(cmd.Context(), s, out); err != nil {
				return err
			}

			errored := 0
			for _, t := range s.Tables {
				fields, err := e.Fields(cmd.Context(), fielddef.TableID(t.ID))
				if err != nil {
					return err
				}
				for _, f := range fields {
					status := green("ok")
					if f.HasError {
						status = red("error")
						errored++
					}
					fmt.Fprintf(out, "  %s.%s %v: %s\n", t.ID, f.ID, f.Kind, status)
				}
			}
			if errored > 0 {
				return fmt.Errorf("%d %w", errored, errFieldsErrored)
			}
			return nil
		},
	}
}
