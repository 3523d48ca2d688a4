package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"chem-datapackager/internal/app"
)

type renderOptions struct {
	InChI    string
	InChIKey string
}

func newRenderCommand(service *serviceOptions) *cobra.Command {
	opts := renderOptions{}
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render the depiction for one InChI into the image root",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRender(cmd.Context(), cmd, service, opts)
		},
	}
	cmd.Flags().StringVar(&opts.InChI, "inchi", "", "Standard InChI string")
	cmd.Flags().StringVar(&opts.InChIKey, "inchi-key", "", "InChIKey naming the image")
	return cmd
}

func runRender(ctx context.Context, cmd *cobra.Command, service *serviceOptions, opts renderOptions) error {
	svc, finish, err := openService(cmd, service)
	if err != nil {
		return err
	}
	defer finish()
	result, err := svc.Render(ctx, app.RenderRequest{InChI: opts.InChI, InChIKey: opts.InChIKey})
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", result.Status, result.Path)
	return nil
}
