package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// BuildInfo carries version data injected at build time.
type BuildInfo struct {
	Version   string
	Commit    string
	BuildDate string
}

// globalFlags are the persistent flags shared by every command.
type globalFlags struct {
	jsonOutput bool
}

// NewRootCommand builds the webserver command tree.
func NewRootCommand(info BuildInfo) *cobra.Command {
	g := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:   "webserver",
		Short: "webserver is a minimal embeddable HTTP server",
		Long: `webserver serves exact and prefix routes described in a YAML file.

Configuration can be provided via flags, WEBSERVER_* environment variables,
a .env file or a configuration file (--config or WEBSERVER_CONFIG).`,
		SilenceUsage:  true,
		SilenceErrors: true, // We handle errors in Execute()
	}

	rootCmd.PersistentFlags().BoolVar(&g.jsonOutput, "json", false, "Output command results in JSON format")

	rootCmd.AddCommand(
		newServeCmd(),
		newRoutesCmd(g),
		newVersionCmd(g, info),
	)
	return rootCmd
}

// Execute runs the CLI with os.Args and returns the process exit code.
func Execute(info BuildInfo) int {
	if err := NewRootCommand(info).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
	return 0
}
