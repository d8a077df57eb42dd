package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "vaniflow",
	Short: "Vaniflow is a multi-tenant chatbot decision platform",
	Long: `Vaniflow runs organization chatbots: it classifies incoming messages,
walks each chatbot's flow definition, routes intents to business services
and records analytics for every conversation turn.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
