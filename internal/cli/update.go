package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/guiyumin/igget/internal/core/updater"
	"github.com/spf13/cobra"
)

var updateCheckOnly bool

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Update igget to the latest release",
	RunE: func(cmd *cobra.Command, args []string) error {
		if updateCheckOnly {
			status, err := updater.Check(cmd.Context())
			if err != nil {
				return err
			}
			if status.Available {
				fmt.Printf("Update available: v%s -> %s\n", status.Current, color.GreenString(status.Latest))
			} else {
				fmt.Printf("Already up to date (v%s)\n", status.Current)
			}
			return nil
		}

		status, err := updater.Update(cmd.Context())
		if err != nil {
			return err
		}
		if !status.Available {
			fmt.Printf("Already up to date (v%s)\n", status.Current)
			return nil
		}
		fmt.Printf("Successfully updated v%s -> %s\n", status.Current, color.GreenString(status.Latest))
		return nil
	},
}

func init() {
	updateCmd.Flags().BoolVar(&updateCheckOnly, "check", false, "only check whether an update is available")
	rootCmd.AddCommand(updateCmd)
}
