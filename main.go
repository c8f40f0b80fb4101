// Package main provides the entry point for the nightlyprep CLI tool.
package main

import (
	"nightlyprep/cmd"
)

func main() {
	cmd.Execute()
}
