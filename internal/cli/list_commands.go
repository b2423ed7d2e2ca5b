// internal/cli/list_commands.go
package routerbench

import "github.com/spf13/cobra"

// listCmd groups listing commands.
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Group commands for listing things",
}

// commandsCmd implements 'list commands', which prints the available
// commands and subcommands in a hierarchical, indented, two-column format.
var commandsCmd = &cobra.Command{
	Use:   "commands",
	Short: "List all commands and subcommands in two columns",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		runListCommands(cmd, rootCmd)
	},
}

func init() {
	listCmd.AddCommand(commandsCmd)
	rootCmd.AddCommand(listCmd)
}
