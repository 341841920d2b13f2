package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "idea-tracker",
	Short: "A CLI for managing the Investment Idea Tracker services",
	Long:  `Idea Tracker is a personal investment dashboard with live portfolio valuation...`,
}

func main() {

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Whoops. There was an error while executing your CLI '%s'", err)
		os.Exit(1)
	}
}
