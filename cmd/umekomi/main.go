// Umekomi - local text embedding with transformer models
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kotoba-ml/umekomi/internal/config"
	"github.com/kotoba-ml/umekomi/internal/embedder"
	"github.com/kotoba-ml/umekomi/pkg/utils"
)

var (
	// Version is set at build time
	Version = "0.4.0"

	// Global flags
	configPath string
	useMock    bool
	verbose    bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "umekomi",
	Short: "Local text embedding service",
	Long: `Umekomi converts text into dense embedding vectors using transformer
models that run entirely on your machine via ONNX Runtime.

Model weights are fetched once into a local cache. Point BERT_MODEL_FOLDER or
JINA_MODEL_FOLDER at a folder containing model.onnx and vocab.txt to use
local weights instead.

Examples:
  # Embed a single text
  umekomi embed --text "Hello, world!"

  # Embed several texts at once
  umekomi embed --json-input --text '["first text", "second text"]'

  # Use the larger Jina model
  umekomi embed --text "Hello" --model jina

  # List available models
  umekomi models

  # Start the HTTP API
  umekomi serve`,
	Version: Version,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file path")
	rootCmd.PersistentFlags().BoolVar(&useMock, "mock", false, "Use the deterministic mock runtime (development)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")

	rootCmd.AddCommand(embedCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(modelsCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(Version)
	},
}

// loadConfig reads the config file when one is given, otherwise starts from
// defaults, then layers the global flags on top.
func loadConfig() (*config.Config, error) {
	var cfg *config.Config
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else {
		cfg = config.Default()
	}
	if verbose {
		cfg.Debug = true
	}
	if useMock {
		cfg.Models.UseMock = true
	}
	return cfg, nil
}

func embedderOptions(cfg *config.Config, logger *zap.Logger) embedder.Options {
	return embedder.Options{
		CacheDir: cfg.Models.CacheDir,
		UseMock:  cfg.Models.UseMock,
		Logger:   logger,
	}
}

// quietLogger builds a logger for one-shot commands. Without --verbose it
// stays silent so stdout carries only the result.
func quietLogger(cfg *config.Config) (*zap.Logger, error) {
	if !cfg.Debug {
		return zap.NewNop(), nil
	}
	return utils.NewLogger(true)
}
