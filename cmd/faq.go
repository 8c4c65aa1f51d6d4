package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/faqbot/internal/faq"
	"github.com/ziadkadry99/faqbot/internal/intent"
	"github.com/ziadkadry99/faqbot/internal/lang"
)

var faqCmd = &cobra.Command{
	Use:   "faq",
	Short: "Manage the FAQ catalog",
}

var faqImportCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Import FAQ entries from a YAML seed file",
	Long: `Reads a YAML seed file and inserts or replaces its entries by id.
A running server picks the change up on SIGHUP or POST /api/faqs/reload.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		database, err := openDB(cfg)
		if err != nil {
			return err
		}
		defer database.Close()

		n, err := importSeed(ctx, faq.NewStore(database), args[0])
		if err != nil {
			return err
		}
		fmt.Printf("Imported %d FAQ entries from %s\n", n, args[0])
		return nil
	},
}

var faqListCmd = &cobra.Command{
	Use:   "list",
	Short: "List FAQ entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		langFlag, _ := cmd.Flags().GetString("lang")
		categoryFlag, _ := cmd.Flags().GetString("category")

		var filter faq.Filter
		if langFlag != "" {
			code, err := lang.ParseCode(langFlag)
			if err != nil {
				return err
			}
			filter.Language = code
		}
		if categoryFlag != "" {
			category, err := intent.Parse(categoryFlag)
			if err != nil {
				return err
			}
			filter.Category = category
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		database, err := openDB(cfg)
		if err != nil {
			return err
		}
		defer database.Close()

		entries, err := faq.NewStore(database).List(ctx, filter)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Println("No FAQ entries. Run `faqbot faq import <file>` first.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tLANG\tCATEGORY\tQUESTION")
		for _, e := range entries {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", e.ID, e.Language, e.Category, e.Question)
		}
		return w.Flush()
	},
}

func init() {
	faqListCmd.Flags().String("lang", "", "only entries in this language")
	faqListCmd.Flags().String("category", "", "only entries in this category")
	faqCmd.AddCommand(faqImportCmd, faqListCmd)
	rootCmd.AddCommand(faqCmd)
}
