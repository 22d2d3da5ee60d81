package commands

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/haivivi/roots/pkg/cli"
	"github.com/haivivi/roots/pkg/genx/modelloader"
)

const appName = "roots"

var (
	// Global flags
	cfgFile     string
	contextName string
	outputFile  string
	outputJSON  bool
	query       string
	verbose     bool
	modelFlags  map[string]string

	globalConfig *cli.Config
)

var rootCmd = &cobra.Command{
	Use:   "roots",
	Short: "ROOTS multi-modal mythology guide",
	Long: `ROOTS - explore the world's religions and myths with Gemini.

Analyze sacred images and chants, chat with a neutral comparative
mythologist, write illustrated fables, plan mythic videos and listen
to guided meditations.

Configuration is stored in ~/.giztoy/roots/ and supports multiple contexts,
similar to kubectl's context management.

Examples:
  # Set up a context
  roots config add-context gemini --api-key YOUR_API_KEY

  # Identify an image
  roots vision ./amulet.jpg

  # Plan a video and keep only the scene visuals
  roots video "Odin's sacrifice" --json -q '.scenes[].visual'

  # Route chat through a model from ~/.giztoy/roots/models
  roots chat --model chat=openai/gpt-4o "Who is Hermes?"
`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		initLogging()
		return initConfig()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.giztoy/roots/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&contextName, "context", "c", "", "context name to use")
	rootCmd.PersistentFlags().StringVarP(&outputFile, "output", "o", "", "write the result to a file")
	rootCmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "output as JSON (for piping)")
	rootCmd.PersistentFlags().StringVarP(&query, "query", "q", "", "jq expression applied to the result")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringToStringVar(&modelFlags, "model", nil, "override the model of a kind, e.g. chat=gemini/flash")

	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(visionCmd)
	rootCmd.AddCommand(listenCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(sessionCmd)
	rootCmd.AddCommand(storyCmd)
	rootCmd.AddCommand(videoCmd)
	rootCmd.AddCommand(meditateCmd)
	rootCmd.AddCommand(speakCmd)
	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(devicesCmd)
}

func initLogging() {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	modelloader.Verbose = verbose
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

func initConfig() error {
	var err error
	globalConfig, err = cli.LoadConfigWithPath(appName, cfgFile)
	if err != nil {
		return fmt.Errorf("initializing config: %w", err)
	}
	return nil
}

func getConfig() *cli.Config {
	return globalConfig
}

// getContext returns the context to use. Without any configured context a
// GEMINI_API_KEY environment variable is accepted instead.
func getContext() (*cli.Context, error) {
	cfg := getConfig()
	if cfg == nil {
		return nil, fmt.Errorf("configuration not initialized")
	}

	ctx, err := cfg.ResolveContext(contextName)
	if err == nil {
		return ctx, nil
	}
	if contextName == "" {
		if key := os.Getenv("GEMINI_API_KEY"); key != "" {
			return &cli.Context{Name: "env", APIKey: key}, nil
		}
		return nil, fmt.Errorf("no context specified. Use -c flag, set a default context with 'roots config use-context' or export GEMINI_API_KEY")
	}
	return nil, err
}

// structuredOutput reports whether results are printed as data rather than
// rendered for the terminal.
func structuredOutput() bool {
	return outputJSON || outputFile != "" || query != ""
}

func outputResult(cmd *cobra.Command, result any) error {
	format := cli.FormatYAML
	if outputJSON {
		format = cli.FormatJSON
	}
	opts := cli.OutputOptions{
		Format: format,
		File:   outputFile,
		Query:  query,
	}
	if outputFile == "" {
		opts.Writer = cmd.OutOrStdout()
	}
	return cli.Output(result, opts)
}

func printVerbose(format string, args ...any) {
	if verbose {
		slog.Debug(fmt.Sprintf(format, args...))
	}
}
