package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/sprouts/internal/ask"
	"github.com/ziadkadry99/sprouts/internal/llm"
)

var askCmd = &cobra.Command{
	Use:   "ask [message]",
	Short: "Run one message through the safety pipeline",
	Long:  `Masks, classifies and answers (or clarifies) a single message, printing the same payload POST /ask returns.`,
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAsk,
}

func init() {
	askCmd.Flags().Bool("json", false, "output the full response as JSON")
	askCmd.Flags().String("model", "", "model to use for this request (overrides config)")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	jsonOutput, _ := cmd.Flags().GetBool("json")
	model, _ := cmd.Flags().GetString("model")

	quietLogs()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	gw, err := buildGateway(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer gw.Close()

	req := ask.Request{
		Messages: []llm.Message{{Role: llm.RoleUser, Content: strings.Join(args, " ")}},
		Model:    model,
	}
	resp, err := gw.pipeline.Handle(cmd.Context(), ask.EndpointCLI, req)
	if err != nil {
		return err
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}

	fmt.Println(resp.Message)
	if resp.SuggestedNext != nil {
		fmt.Printf("\nYou could also ask: %s\n", *resp.SuggestedNext)
	}
	if resp.Type == ask.TypeClarify {
		fmt.Fprintf(os.Stderr, "\n[clarify] category=%s severity=%.2f\n", resp.Safety.Category, resp.Safety.Severity)
	}
	return nil
}
