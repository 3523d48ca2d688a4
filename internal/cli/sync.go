package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"chem-datapackager/internal/app"
)

func newSyncMoleculesCommand(service *serviceOptions) *cobra.Command {
	var datasetID string
	cmd := &cobra.Command{
		Use:   "sync-molecules",
		Short: "Re-link a dataset to its molecule identity",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSyncMolecules(cmd.Context(), cmd, service, datasetID)
		},
	}
	cmd.Flags().StringVar(&datasetID, "id", "", "Dataset id")
	return cmd
}

func runSyncMolecules(ctx context.Context, cmd *cobra.Command, service *serviceOptions, datasetID string) error {
	svc, finish, err := openService(cmd, service)
	if err != nil {
		return err
	}
	defer finish()
	result, err := svc.SyncMolecules(ctx, app.SyncRequest{DatasetID: datasetID})
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: molecule %s (id %d)\n", result.DatasetID, result.Molecule.Status, result.Molecule.MoleculeID)
	return nil
}
