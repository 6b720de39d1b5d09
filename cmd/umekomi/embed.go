package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kotoba-ml/umekomi/internal/embedder"
)

var (
	embedText      string
	embedModel     string
	embedPretty    bool
	embedJSONInput bool
)

var embedCmd = &cobra.Command{
	Use:   "embed",
	Short: "Embed text and print the vector as JSON",
	Long: `Embed text and print the resulting vector to stdout as JSON.

With --json-input, --text is parsed as a JSON array of strings and every
text is embedded in one batch; the output is an array of {text, embed}
objects in input order.

Examples:
  umekomi embed --text "Hello, world!"
  umekomi embed --text "Hello" --model jina --pretty
  umekomi embed --json-input --text '["first", "second"]'`,
	RunE: runEmbed,
}

func init() {
	embedCmd.Flags().StringVarP(&embedText, "text", "t", "", "Text to embed (required)")
	embedCmd.Flags().StringVarP(&embedModel, "model", "m", "mini_lm_v2", "Model to use")
	embedCmd.Flags().BoolVar(&embedPretty, "pretty", false, "Pretty-print the JSON output")
	embedCmd.Flags().BoolVar(&embedJSONInput, "json-input", false, "Treat --text as a JSON array of strings")
	_ = embedCmd.MarkFlagRequired("text")
}

type embedResult struct {
	Text  string    `json:"text"`
	Embed []float32 `json:"embed"`
}

func runEmbed(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := quietLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx := context.Background()
	inst, err := embedder.Open(ctx, embedModel, embedderOptions(cfg, logger))
	if err != nil {
		return err
	}
	defer inst.Close()

	if embedJSONInput {
		var texts []string
		if err := json.Unmarshal([]byte(embedText), &texts); err != nil {
			return fmt.Errorf("failed to parse --text as a JSON array: %w", err)
		}
		vectors, err := inst.EmbedBatch(ctx, texts)
		if err != nil {
			return err
		}
		results := make([]embedResult, len(texts))
		for i, text := range texts {
			results[i] = embedResult{Text: text, Embed: vectors[i]}
		}
		return printJSON(results)
	}

	vec, err := inst.Embed(ctx, embedText)
	if err != nil {
		return err
	}
	return printJSON(vec)
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	if embedPretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}
