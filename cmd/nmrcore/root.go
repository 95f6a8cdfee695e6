package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/cwbudde/algo-nmr/internal/config"
	"github.com/cwbudde/algo-nmr/internal/logging"
)

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "nmrcore",
		Short: "NMR spectral unit conversion, fitting and deconvolution",
		Long: `nmrcore converts positions between spectral units, fits relaxation and
line-shape models with bootstrap error estimates, deconvolves line shapes
from spectra and edits peak lists.

Settings are read from --config, ./.nmrcore.yaml or the XDG config file
nmrcore/config.yaml, in that order. Command-line flags override them.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringP("config", "c", "", "Configuration file path")
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")

	cmd.AddCommand(NewConvertCmd())
	cmd.AddCommand(NewFitCmd())
	cmd.AddCommand(NewDeconvCmd())
	cmd.AddCommand(NewPeaksCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadSettings resolves the configuration file and builds the logger for
// a command. Logs go to the command's error stream.
func loadSettings(cmd *cobra.Command) (config.Config, *zap.Logger, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("configuration error: %w", err)
	}

	level := cfg.Log.Level
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		level = "debug"
	}
	logger := logging.New(
		logging.WithLevel(level),
		logging.WithDevelopment(cfg.Log.Development),
		logging.WithOutput(zapcore.AddSync(cmd.ErrOrStderr())),
		logging.WithFields(map[string]any{"command": cmd.Name()}),
	)
	return cfg, logger, nil
}

// openInput opens the named file, or the command's input for "-" or no
// name. The returned closer is never nil.
func openInput(cmd *cobra.Command, args []string) (io.Reader, func() error, error) {
	if len(args) == 0 || args[0] == "-" {
		return cmd.InOrStdin(), func() error { return nil }, nil
	}
	f, err := os.Open(args[0])
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}

// readColumn parses one number per line, skipping blank lines and lines
// starting with '#'.
func readColumn(r io.Reader) ([]float64, error) {
	var out []float64
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		v, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		out = append(out, v)
	}
	return out, sc.Err()
}
