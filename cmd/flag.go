package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/zjrosen/lootbox/internal/config"
)

func newFlagCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "flag [name [on|off]]",
		Short: "Show or set feature flags",
		Example: `  lootbox flag
  lootbox flag journal on`,
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch len(args) {
			case 0:
				for _, name := range a.flags.Names() {
					fmt.Fprintf(out, "%s: %t\n", name, a.flags.Enabled(name))
				}
				return nil
			case 1:
				fmt.Fprintf(out, "%s: %t\n", args[0], a.flags.Enabled(args[0]))
				return nil
			}

			value, err := parseSwitch(args[1])
			if err != nil {
				return err
			}
			all := a.flags.All()
			all[args[0]] = value
			if err := config.SaveFlags(a.configPath, all); err != nil {
				return fmt.Errorf("saving flags: %w", err)
			}
			fmt.Fprintf(out, "%s: %t (saved to %s)\n", args[0], value, a.configPath)
			return nil
		},
	}
	return cmd
}

func parseSwitch(s string) (bool, error) {
	switch s {
	case "on":
		return true, nil
	case "off":
		return false, nil
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("invalid flag value %q: want on or off", s)
	}
	return v, nil
}
