// Package main provides the entry point for the semview command.
package main

import (
	"log"

	"sem-view/internal/cli"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	cli.Execute()
}
