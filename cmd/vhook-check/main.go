// Command vhook-check prints the host layouts the sdk package was built with
// and validates the vhook configuration next to them, without attaching to
// anything. A layout that does not match its expected locations stops the
// sdk package from initializing, so reaching main means every layout passed.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/pboyd/vhook/config"
	"github.com/pboyd/vhook/sdk"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	var (
		configDir string
		logLevel  string
		verbose   bool
	)

	fs := flag.NewFlagSet("vhook-check", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&configDir, "config-dir", "", "directory holding "+config.FileName)
	fs.StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	fs.BoolVar(&verbose, "v", false, "print every layout")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg := config.Default()
	if configDir != "" {
		var err error
		cfg, err = config.LoadDir(configDir)
		if err != nil {
			fmt.Fprintf(stderr, "failed to load config: %v\n", err)
			return 1
		}
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}

	logger, err := config.NewLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(stderr, "failed to create logger: %v\n", err)
		return 1
	}
	defer logger.Sync()

	layouts := sdk.Layouts()
	for _, d := range layouts {
		if verbose {
			fmt.Fprint(stdout, d)
		}
		logger.Debug("layout ok", zap.String("layout", d.Name), zap.Int("span", d.Span()))
	}

	for name, h := range cfg.Hooks {
		logger.Info("hook configured", zap.String("slot", name), zap.Bool("enabled", h.IsEnabled()))
	}

	logger.Info("layouts ok", zap.Int("layouts", len(layouts)))
	return 0
}
