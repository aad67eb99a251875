package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/hmiddleton/schoolpitch/cmd/cli/data"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func init() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	rootCmd.AddGroup(data.Group)
	rootCmd.AddCommand(data.Stats)
	rootCmd.AddCommand(data.Export)
}

var rootCmd = &cobra.Command{
	Use:  "schoolpitch-cli",
	Long: `Command line utilities for Schoolpitch https://github.com/hmiddleton/schoolpitch`,
	Run: func(cmd *cobra.Command, args []string) {
		// Do Stuff Here
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func main() {
	Execute()
}
