// Package catalog defines the fixed set of supported embedding models.
package catalog

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownModel is returned by Resolve for an identifier outside the supported set.
var ErrUnknownModel = errors.New("unknown model")

// ModelSpec describes a supported model. Specs are immutable and defined at
// compile time; Resolve returns them by value.
type ModelSpec struct {
	// Name is the canonical identifier ("mini_lm_v2", "jina").
	Name string
	// Repo is the HuggingFace repository the weights are fetched from.
	Repo string
	// Dimension is the output embedding dimension.
	Dimension int
	// MaxTokens is the fixed sequence length used for inference.
	MaxTokens int
	// EnvVar names the environment variable holding a local model folder
	// override (a directory containing model.onnx and vocab.txt).
	EnvVar string
}

var specs = []ModelSpec{
	{
		Name:      "mini_lm_v2",
		Repo:      "sentence-transformers/all-MiniLM-L6-v2",
		Dimension: 384,
		MaxTokens: 256,
		EnvVar:    "BERT_MODEL_FOLDER",
	},
	{
		Name:      "jina",
		Repo:      "jinaai/jina-embeddings-v2-base-en",
		Dimension: 768,
		MaxTokens: 256,
		EnvVar:    "JINA_MODEL_FOLDER",
	},
}

// aliases maps accepted alternate identifiers to canonical names.
var aliases = map[string]string{
	"mini_lm": "mini_lm_v2",
	"bert":    "mini_lm_v2",
}

// Resolve returns the ModelSpec for identifier. Matching is case-insensitive
// and accepts the aliases "mini_lm" and "bert" for "mini_lm_v2".
func Resolve(identifier string) (ModelSpec, error) {
	name := strings.ToLower(identifier)
	if canonical, ok := aliases[name]; ok {
		name = canonical
	}
	for _, s := range specs {
		if s.Name == name {
			return s, nil
		}
	}
	return ModelSpec{}, fmt.Errorf("%w: %q (supported: %s)", ErrUnknownModel, identifier, strings.Join(Names(), ", "))
}

// Names returns the canonical identifiers of all supported models.
func Names() []string {
	names := make([]string, len(specs))
	for i, s := range specs {
		names[i] = s.Name
	}
	return names
}

// All returns a copy of every supported ModelSpec.
func All() []ModelSpec {
	out := make([]ModelSpec, len(specs))
	copy(out, specs)
	return out
}
