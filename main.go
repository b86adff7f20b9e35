// qrdeck manages QR code projects from the command line.
package main

import (
	"os"

	"github.com/qrdeck/qrdeck/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
