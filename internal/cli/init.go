package cli

import (
	"fmt"

	"github.com/guiyumin/igget/internal/core/config"
	"github.com/guiyumin/igget/internal/core/i18n"
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create igget config file with defaults",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadOrDefault()
		t := i18n.T(cfg.Language)

		if config.Exists() {
			return fmt.Errorf("%s: %s", t.Config.Exists, config.SavePath())
		}
		if err := config.Init(); err != nil {
			return err
		}

		fmt.Printf("%s %s\n", t.Config.Saved, config.SavePath())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
