package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/faqbot/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize faqbot configuration with an interactive wizard",
	Long:  `Runs an interactive wizard to choose providers, languages and the FAQ seed file, and writes the config file.`,
	Run: func(cmd *cobra.Command, args []string) {
		_, err := config.RunWizard(cfgFile)
		exitOnError(err)
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
