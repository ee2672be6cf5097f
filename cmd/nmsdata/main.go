// Package main provides the entry point for the nmsdata CLI tool.
package main

import "github.com/bradhave/nmsdata/cmd/nmsdata/cmd"

// Version information populated by goreleaser.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	cmd.Execute(version, commit, date)
}
