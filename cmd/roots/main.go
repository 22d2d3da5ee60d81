// Package main provides the roots CLI.
//
// Usage:
//
//	roots [flags] <command> [args]
//
// Commands:
//
//	vision    - Identify a religious object, ritual or symbol in an image
//	listen    - Analyze a chant, mantra or prayer recording
//	chat      - Talk to the ROOTS guide, optionally in a saved session
//	session   - Manage saved chat sessions
//	story     - Write an illustrated fable
//	video     - Plan a short mythic video
//	meditate  - Generate (and speak) a guided meditation
//	speak     - Synthesize speech with the Fenrir voice
//	play      - Play raw PCM audio
//	devices   - List audio output devices
//	config    - Configuration management
//
// Configuration:
//
//	The CLI stores configuration in ~/.giztoy/roots/
//	Use 'roots config' commands to manage contexts.
package main

import (
	"fmt"
	"os"

	"github.com/haivivi/roots/cmd/roots/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
