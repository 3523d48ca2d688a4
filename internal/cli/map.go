package cli

import (
	"context"
	"fmt"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"chem-datapackager/internal/app"
)

type mapOptions struct {
	File string
	URL  string
	CIF  bool
}

func newMapCommand(service *serviceOptions) *cobra.Command {
	opts := mapOptions{}
	cmd := &cobra.Command{
		Use:   "map",
		Short: "Print the dataset records a source would produce, without ingesting",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMap(cmd.Context(), cmd, service, opts)
		},
	}
	cmd.Flags().StringVar(&opts.File, "file", "", "Data-package JSON or CIF file")
	cmd.Flags().StringVar(&opts.URL, "url", "", "Data-package JSON URL")
	cmd.Flags().BoolVar(&opts.CIF, "cif", false, "Treat --file as CIF")
	return cmd
}

func runMap(ctx context.Context, cmd *cobra.Command, service *serviceOptions, opts mapOptions) error {
	svc, err := app.NewSourceService(service.config(cmd))
	if err != nil {
		return err
	}
	result, err := svc.Map(ctx, app.MapRequest{Path: opts.File, URL: opts.URL, CIF: opts.CIF})
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	encoder := yaml.NewEncoder(out)
	encoder.SetIndent(2)
	if err := encoder.Encode(result.Records); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to encode records").
			WithCause(err)
	}
	if err := encoder.Close(); err != nil {
		return err
	}
	for _, failure := range result.Failures {
		fmt.Fprintf(cmd.ErrOrStderr(), "failed: %s#%d: %s\n", failure.Source, failure.Index, errorMessage(failure.Err))
	}
	return nil
}
