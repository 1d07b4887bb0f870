package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/sprouts/internal/evalset"
	"github.com/ziadkadry99/sprouts/internal/progress"
)

var evalCmd = &cobra.Command{
	Use:   "eval",
	Short: "Run a safety regression suite",
	Long: `Sends every conversation in a YAML suite through the pipeline and checks
whether it was answered or clarified as expected. Exits non-zero if any case
fails or errors.`,
	RunE: runEval,
}

func init() {
	evalCmd.Flags().String("file", "evals/safety.yml", "suite file")
	evalCmd.Flags().Bool("json", false, "output the report as JSON")
	rootCmd.AddCommand(evalCmd)
}

func runEval(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("file")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	quietLogs()

	suite, err := evalset.Load(path)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	gw, err := buildGateway(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer gw.Close()

	var reporter progress.Reporter = progress.NewReporter("Evaluating")
	if jsonOutput {
		reporter = progress.Nop{}
	}

	report, err := evalset.Run(cmd.Context(), gw.pipeline, suite, reporter)
	if err != nil {
		return fmt.Errorf("running suite: %w", err)
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return err
		}
	} else {
		printReport(report)
	}

	if !report.OK() {
		return fmt.Errorf("%d of %d cases did not pass", report.Total-report.Passed, report.Total)
	}
	return nil
}

func printReport(r evalset.Report) {
	for _, res := range r.Results {
		switch {
		case res.Error != "":
			fmt.Printf("ERROR %s: %s\n", res.Name, res.Error)
		case res.Passed:
			fmt.Printf("ok    %s (%s)\n", res.Name, res.Got)
		default:
			fmt.Printf("FAIL  %s: expected %s, got %s (category=%s severity=%.2f)\n",
				res.Name, res.Expect, res.Got, res.Category, res.Severity)
		}
	}
	fmt.Printf("\n%d passed, %d failed, %d errored\n", r.Passed, r.Failed, r.Errored)
}
