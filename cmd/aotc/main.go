// Command aotc drives the ahead-of-time compiler from the command line:
// compiling a decoded module into a packaged artifact, or inspecting one
// that already exists on disk.
package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/wazedge/aotwasm/internal/aot"
)

var (
	logLevel  string
	logFormat string
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "aotc",
		Short:         "aotc compiles and packages WebAssembly modules ahead of time",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return configureLogging()
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (trace, debug, info, warn, error)")
	root.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log output format (text, json)")

	root.AddCommand(newCompileCmd())
	root.AddCommand(newInspectCmd())
	return root
}

func configureLogging() error {
	lvl, err := logrus.ParseLevel(logLevel)
	if err != nil {
		return fmt.Errorf("aotc: invalid --log-level %q: %w", logLevel, err)
	}
	logger := logrus.New()
	logger.SetLevel(lvl)
	switch logFormat {
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	case "text":
		logger.SetFormatter(&logrus.TextFormatter{})
	default:
		return fmt.Errorf("aotc: invalid --log-format %q", logFormat)
	}
	aot.SetLogger(logger)
	return nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "aotc:", err)
		os.Exit(1)
	}
}
