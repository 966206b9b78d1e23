package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/peopledesk/peopledesk/internal/health"
)

func newProbeCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "probe",
		Short: "Check whether the configured store is reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			be, err := openBackend(cmd.Context(), a.cfg)
			if err != nil {
				return err
			}
			defer be.Close()

			checker := health.NewChecker(be.store, health.WithProbeTimeout(a.cfg.ProbeTimeout))
			status := checker.Check(cmd.Context())

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(status); err != nil {
				return err
			}
			if !status.Reachable {
				return fmt.Errorf("%s store unreachable", a.cfg.Backend)
			}
			return nil
		},
	}
}
