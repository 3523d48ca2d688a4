package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"chem-datapackager/internal/app"
)

type purgeOptions struct {
	DatasetID string
	Actor     string
}

func newPurgeCommand(service *serviceOptions) *cobra.Command {
	opts := purgeOptions{}
	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Permanently remove a dataset and its molecule links (sysadmin only)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPurge(cmd.Context(), cmd, service, opts)
		},
	}
	cmd.Flags().StringVar(&opts.DatasetID, "id", "", "Dataset id")
	cmd.Flags().StringVar(&opts.Actor, "actor", "", "Catalog user performing the purge")
	_ = viper.BindPFlag("actor", cmd.Flags().Lookup("actor"))
	return cmd
}

func runPurge(ctx context.Context, cmd *cobra.Command, service *serviceOptions, opts purgeOptions) error {
	svc, finish, err := openService(cmd, service)
	if err != nil {
		return err
	}
	defer finish()
	result, err := svc.Purge(ctx, app.PurgeRequest{
		DatasetID: opts.DatasetID,
		Actor:     resolveString(cmd, opts.Actor, "actor", "actor"),
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "purged %s (%d molecule links, %d related resources)\n",
		result.DatasetID, result.LinksDeleted, result.RelatedDeleted)
	return nil
}
