// cmd/routerbench/main.go
package main

import (
	cmd "github.com/mwiater/routerbench/internal/cli"
)

// main starts the routerbench CLI by delegating to the cobra root command.
func main() {
	cmd.Execute()
}
