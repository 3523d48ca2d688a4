package cli

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"chem-datapackager/internal/app"
)

type ingestCIFOptions struct {
	Files    []string
	OwnerOrg string
	Private  bool
}

func newIngestCIFCommand(service *serviceOptions) *cobra.Command {
	opts := ingestCIFOptions{}
	cmd := &cobra.Command{
		Use:   "ingest-cif [path...]",
		Short: "Ingest CIF crystal files into the catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Files = append(opts.Files, args...)
			return runIngestCIF(cmd.Context(), cmd, service, opts)
		},
	}
	cmd.Flags().StringSliceVar(&opts.Files, "file", nil, "CIF files or directories to search")
	cmd.Flags().StringVar(&opts.OwnerOrg, "owner-org", "", "Owning organization for every dataset")
	cmd.Flags().BoolVar(&opts.Private, "private", false, "Mark every dataset private")
	_ = viper.BindPFlag("owner_org", cmd.Flags().Lookup("owner-org"))
	return cmd
}

func runIngestCIF(ctx context.Context, cmd *cobra.Command, service *serviceOptions, opts ingestCIFOptions) error {
	svc, finish, err := openService(cmd, service)
	if err != nil {
		return err
	}
	defer finish()
	result, err := svc.IngestCIF(ctx, app.IngestCIFRequest{
		Paths:    opts.Files,
		OwnerOrg: resolveString(cmd, opts.OwnerOrg, "owner_org", "owner-org"),
		Private:  resolveOptionalBool(cmd, opts.Private, "private", "private"),
	})
	if err != nil {
		return err
	}
	printIngestResult(cmd.OutOrStdout(), result)
	return result.Err()
}
