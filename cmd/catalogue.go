package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zjrosen/lootbox/internal/catalogue"
	"github.com/zjrosen/lootbox/internal/presentation"
)

func newCatalogueCmd(a *app) *cobra.Command {
	var export bool
	cmd := &cobra.Command{
		Use:     "catalogue",
		Aliases: []string{"cat"},
		Short:   "List the entries a load session would request",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cat, err := a.catalogue()
			if err != nil {
				return err
			}
			if export {
				data, err := catalogue.Marshal(cat)
				if err != nil {
					return fmt.Errorf("encoding catalogue: %w", err)
				}
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			return a.formatter(cmd).FormatCatalogue(presentation.FromCatalogue(cat))
		},
	}
	cmd.Flags().BoolVar(&export, "export", false,
		"print the catalogue as YAML, suitable as a starting catalogue file")
	return cmd
}
