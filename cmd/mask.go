package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/sprouts/internal/pii"
)

var maskCmd = &cobra.Command{
	Use:   "mask [text]",
	Short: "Replace emails and phone numbers with [REDACTED]",
	Long:  `Runs only the PII masker. No configuration or network access is needed.`,
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		masked, _ := pii.Mask(strings.Join(args, " "))
		fmt.Println(masked)
	},
}

func init() {
	rootCmd.AddCommand(maskCmd)
}
