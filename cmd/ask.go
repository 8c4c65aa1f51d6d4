package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer one question from the command line",
	Long: `Runs a single message through the full pipeline and prints the answer.
Pass --session to continue a conversation within the same process lifetime.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().String("lang", "", "declared language code of the question")
	askCmd.Flags().String("session", "", "session id to continue")
	askCmd.Flags().Bool("json", false, "print the full response as JSON")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	declared, _ := cmd.Flags().GetString("lang")
	sessionID, _ := cmd.Flags().GetString("session")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	p, err := buildPipeline(ctx, cfg, newLogger(cfg))
	if err != nil {
		return err
	}
	defer p.close(ctx)

	resp, err := p.assistant.HandleMessage(ctx, sessionID, strings.Join(args, " "), declared)
	if err != nil {
		return err
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}

	fmt.Println(resp.Text)
	fmt.Println()
	fmt.Printf("strategy=%s language=%s confidence=%.2f intent=%s\n", resp.Strategy, resp.Language, resp.Confidence, resp.Intent)
	if resp.Degraded {
		fmt.Printf("degraded: %s\n", resp.DegradedReason)
	}
	for _, pr := range resp.Provenance {
		if pr.Source != "" {
			fmt.Printf("  %s %s (%s) %.2f\n", pr.Kind, pr.ID, pr.Source, pr.Score)
		} else {
			fmt.Printf("  %s %s %.2f\n", pr.Kind, pr.ID, pr.Score)
		}
	}
	if len(resp.Suggestions) > 0 {
		fmt.Println("Related questions:")
		for _, s := range resp.Suggestions {
			fmt.Printf("  - %s\n", s)
		}
	}
	return nil
}
