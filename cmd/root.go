package cmd

import (
	"io"
	"log"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/sprouts/internal/config"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "sprouts",
	Short: "Child-safe chat gateway with PII masking and intent moderation",
	Long: `Sprouts sits between children and a language model. Every message is
stripped of emails and phone numbers, graded by a safety classifier, and
then either answered or met with a gentle clarifying question.`,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", config.DefaultPath, "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// quietLogs silences pipeline logging for one-shot commands unless --verbose is set.
func quietLogs() {
	if !verbose {
		log.SetOutput(io.Discard)
	}
}
