package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"chem-datapackager/internal/app"
)

type ingestOptions struct {
	File     string
	URL      string
	OwnerOrg string
	Private  bool
}

func newIngestCommand(service *serviceOptions) *cobra.Command {
	opts := ingestOptions{}
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Ingest a data-package JSON file into the catalog",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runIngest(cmd.Context(), cmd, service, opts)
		},
	}
	cmd.Flags().StringVar(&opts.File, "file", "", "Data-package JSON file")
	cmd.Flags().StringVar(&opts.URL, "url", "", "Data-package JSON URL")
	cmd.Flags().StringVar(&opts.OwnerOrg, "owner-org", "", "Owning organization for every dataset")
	cmd.Flags().BoolVar(&opts.Private, "private", false, "Mark every dataset private")
	_ = viper.BindPFlag("owner_org", cmd.Flags().Lookup("owner-org"))
	return cmd
}

func runIngest(ctx context.Context, cmd *cobra.Command, service *serviceOptions, opts ingestOptions) error {
	svc, finish, err := openService(cmd, service)
	if err != nil {
		return err
	}
	defer finish()
	result, err := svc.Ingest(ctx, app.IngestRequest{
		Path:     opts.File,
		URL:      opts.URL,
		OwnerOrg: resolveString(cmd, opts.OwnerOrg, "owner_org", "owner-org"),
		Private:  resolveOptionalBool(cmd, opts.Private, "private", "private"),
	})
	if err != nil {
		return err
	}
	printIngestResult(cmd.OutOrStdout(), result)
	return result.Err()
}

func printIngestResult(out io.Writer, result app.IngestResult) {
	for _, entry := range result.Records {
		action := "updated"
		if entry.Created {
			action = "created"
		}
		fmt.Fprintf(out, "%s: %s (molecule %s, depiction %s)\n",
			action, entry.Record.ID, entry.Molecule.Status, entry.Depiction.Status)
	}
	for _, failure := range result.Failures {
		fmt.Fprintf(out, "failed: %s#%d %s: %s\n", failure.Source, failure.Index, failure.Name, errorMessage(failure.Err))
	}
	fmt.Fprintf(out, "ingested %d, failed %d\n", len(result.Records), len(result.Failures))
}
