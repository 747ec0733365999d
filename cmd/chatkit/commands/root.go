package commands

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "chatkit",
	Short: "Playground for the chatkit reactive chat primitives",
	Long: `chatkit - playground CLI for the chatkit library.

The playground runs against a built-in scripted model so the streaming
behavior of the library can be exercised without provider credentials.

Examples:
  # Drive a chat session and watch it stream
  chatkit chat -m "tell me something"

  # Run a single streaming completion and print the usage report
  chatkit stream -m "tell me something"`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
