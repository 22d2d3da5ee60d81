// Package cli holds the pieces shared by the roots command-line tool.
//
// This package includes:
//   - Configuration management (kubectl-style contexts)
//   - Output formatting (YAML, JSON, raw) with an optional jq query
//   - Request file loading (YAML/JSON)
//   - Terminal rendering of results and chat transcripts
//
// Configuration is stored in ~/.giztoy/roots/config.yaml.
//
// Example usage:
//
//	cfg, err := cli.LoadConfig("roots")
//	ctx, err := cfg.ResolveContext("")
//
//	cli.Output(result, cli.OutputOptions{
//	    Format: cli.FormatJSON,
//	    Query:  ".scenes[].visual",
//	})
package cli
