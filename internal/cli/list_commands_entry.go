package routerbench

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// runListCommands prints the command tree in a two-column layout, marking
// commands that require an authorized session.
func runListCommands(cmd *cobra.Command, root *cobra.Command) {
	out := cmd.OutOrStdout()
	commandData := collectCommandData(root, "", "")

	width := 0
	for _, data := range commandData {
		width = max(width, len(data.path))
	}

	fmt.Fprintln(out, "Commands and Subcommands:")
	for _, data := range commandData {
		if strings.Contains(data.path, "completion") || strings.Contains(data.path, " help") {
			continue
		}
		desc := data.description
		if data.auth {
			desc += " [auth]"
		}
		fmt.Fprintf(out, "  %-*s  %s\n", width, data.path, desc)
	}
}

// commandInfo holds the path and description of a command for display.
type commandInfo struct {
	path        string
	description string
	auth        bool
}

// collectCommandData walks the command tree depth first.
func collectCommandData(cmd *cobra.Command, parentPath, indent string) []commandInfo {
	fullPath := cmd.Name()
	if parentPath != "" {
		fullPath = parentPath + " " + cmd.Name()
	}

	all := []commandInfo{{
		path:        indent + fullPath,
		description: cmd.Short,
		auth:        cmd.Annotations[annotationAuth] == "required",
	}}
	for _, sub := range cmd.Commands() {
		all = append(all, collectCommandData(sub, fullPath, indent+"  ")...)
	}
	return all
}
