package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/haivivi/roots/pkg/cli"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage CLI configuration",
	Long: `Manage CLI configuration and contexts.

Contexts allow you to manage multiple API configurations,
similar to kubectl's context management.

Configuration is stored in ~/.giztoy/roots/config.yaml`,
}

// extraFlags maps add-context flags to Context.Extra keys.
var extraFlags = map[string]string{
	"models-dir":   cli.ExtraModelsDir,
	"session-dir":  cli.ExtraSessionDir,
	"artifact-dir": cli.ExtraArtifactDir,
	"s3-bucket":    cli.ExtraS3Bucket,
	"s3-prefix":    cli.ExtraS3Prefix,
	"s3-region":    cli.ExtraS3Region,
	"s3-endpoint":  cli.ExtraS3Endpoint,
	"output-rate":  cli.ExtraOutputRate,
	"volume":       cli.ExtraVolume,
}

var configAddContextCmd = &cobra.Command{
	Use:   "add-context <name>",
	Short: "Add a new context",
	Long: `Add a new context with the specified name. The first context added
becomes the current one.

Example:
  roots config add-context gemini --api-key YOUR_API_KEY
  roots config add-context proxy --api-key KEY --base-url https://gemini.example.com --timeout 60
  roots config add-context studio --api-key KEY --s3-bucket roots-art --s3-region eu-west-1`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		apiKey, err := cmd.Flags().GetString("api-key")
		if err != nil {
			return fmt.Errorf("failed to read 'api-key' flag: %w", err)
		}
		baseURL, err := cmd.Flags().GetString("base-url")
		if err != nil {
			return fmt.Errorf("failed to read 'base-url' flag: %w", err)
		}
		timeout, err := cmd.Flags().GetInt("timeout")
		if err != nil {
			return fmt.Errorf("failed to read 'timeout' flag: %w", err)
		}

		ctx := &cli.Context{
			APIKey:  apiKey,
			BaseURL: baseURL,
			Timeout: timeout,
		}
		for flag, key := range extraFlags {
			v, err := cmd.Flags().GetString(flag)
			if err != nil {
				return fmt.Errorf("failed to read '%s' flag: %w", flag, err)
			}
			ctx.SetExtra(key, v)
		}

		if err := getConfig().AddContext(args[0], ctx); err != nil {
			return err
		}
		cli.PrintSuccess("Context %q added successfully", args[0])
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set an extra setting on the current context",
	Long: `Set an extra setting on the current (or -c) context. An empty value
removes the setting.

Keys: models_dir, session_dir, artifact_dir, s3_bucket, s3_prefix,
s3_region, s3_endpoint, output_rate, volume

Example:
  roots config set volume 0.6
  roots config set output_rate 48000`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, err := getConfig().ResolveContext(contextName)
		if err != nil {
			return err
		}
		ctx.SetExtra(args[0], args[1])
		if err := getConfig().Save(); err != nil {
			return err
		}
		cli.PrintSuccess("Set %s on context %q", args[0], ctx.Name)
		return nil
	},
}

var configDeleteContextCmd = &cobra.Command{
	Use:   "delete-context <name>",
	Short: "Delete a context",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := getConfig().DeleteContext(args[0]); err != nil {
			return err
		}
		cli.PrintSuccess("Context %q deleted", args[0])
		return nil
	},
}

var configUseContextCmd = &cobra.Command{
	Use:   "use-context <name>",
	Short: "Set the current context",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := getConfig().UseContext(args[0]); err != nil {
			return err
		}
		cli.PrintSuccess("Switched to context %q", args[0])
		return nil
	},
}

var configGetContextCmd = &cobra.Command{
	Use:   "get-context",
	Short: "Display the current context",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfig()
		if cfg.CurrentContext == "" {
			fmt.Fprintln(cmd.OutOrStdout(), "No current context set")
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), cfg.CurrentContext)
		return nil
	},
}

var configListContextsCmd = &cobra.Command{
	Use:     "list-contexts",
	Aliases: []string{"get-contexts"},
	Short:   "List all contexts",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfig()
		if len(cfg.Contexts) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No contexts configured")
			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "CURRENT\tNAME\tBASE_URL\tARTIFACTS")
		for _, name := range cfg.ListContexts() {
			ctx := cfg.Contexts[name]
			current := ""
			if name == cfg.CurrentContext {
				current = "*"
			}
			baseURL := ctx.BaseURL
			if baseURL == "" {
				baseURL = "(default)"
			}
			artifacts := "local"
			if b := ctx.GetExtra(cli.ExtraS3Bucket); b != "" {
				artifacts = "s3://" + b
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", current, name, baseURL, artifacts)
		}
		return w.Flush()
	},
}

var configViewCmd = &cobra.Command{
	Use:   "view",
	Short: "View the current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfig()
		out := cmd.OutOrStdout()

		fmt.Fprintf(out, "Config file: %s\n", cfg.Path())
		fmt.Fprintf(out, "Current context: %s\n", cfg.CurrentContext)
		fmt.Fprintf(out, "Contexts: %d\n", len(cfg.Contexts))

		for _, name := range cfg.ListContexts() {
			ctx := cfg.Contexts[name]
			fmt.Fprintf(out, "\n  %s:\n", name)
			fmt.Fprintf(out, "    API Key: %s\n", cli.MaskAPIKey(ctx.APIKey))
			if ctx.BaseURL != "" {
				fmt.Fprintf(out, "    Base URL: %s\n", ctx.BaseURL)
			}
			if ctx.Timeout > 0 {
				fmt.Fprintf(out, "    Timeout: %ds\n", ctx.Timeout)
			}
			for _, key := range sortedKeys(ctx.Extra) {
				fmt.Fprintf(out, "    %s: %s\n", key, ctx.Extra[key])
			}
		}
		return nil
	},
}

func init() {
	configAddContextCmd.Flags().String("api-key", "", "Gemini API key")
	configAddContextCmd.Flags().String("base-url", "", "API base URL (optional)")
	configAddContextCmd.Flags().Int("timeout", 0, "request timeout in seconds (optional)")
	for flag, key := range extraFlags {
		configAddContextCmd.Flags().String(flag, "", "sets "+key)
	}

	configCmd.AddCommand(configAddContextCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configDeleteContextCmd)
	configCmd.AddCommand(configUseContextCmd)
	configCmd.AddCommand(configGetContextCmd)
	configCmd.AddCommand(configListContextsCmd)
	configCmd.AddCommand(configViewCmd)
}
