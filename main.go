// ABOUTME: Entry point for the keep CLI
// ABOUTME: Command-line and terminal UI client for Keep Notes

package main

import (
	"os"

	"github.com/markalston/keepnotes/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
