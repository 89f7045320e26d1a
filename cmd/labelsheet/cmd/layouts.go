package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/porticus-lab/labelsheet"
	"github.com/porticus-lab/labelsheet/internal/config"
)

func layoutsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "layouts [name...]",
		Short: "Print the built-in layout presets as YAML",
		Long: `Prints the built-in layout presets in the format read by --layout-file.
A layout file may name one of them with "base:" and override single fields.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			names := args
			if len(names) == 0 {
				names = labelsheet.LayoutNames()
			}
			layouts := make([]labelsheet.Layout, 0, len(names))
			for _, name := range names {
				l, err := labelsheet.LookupLayout(name)
				if err != nil {
					return err
				}
				layouts = append(layouts, l)
			}
			out, err := config.MarshalLayouts(layouts)
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), string(out))
			return err
		},
	}
}
