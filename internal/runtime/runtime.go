// Package runtime loads embedding models and produces pooled, normalized
// vectors for input text. It owns weight acquisition (local folder override
// or HuggingFace download) and ONNX inference; callers treat a Session as a
// black box that either returns a length-Dimension vector or fails.
package runtime

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kotoba-ml/umekomi/internal/catalog"
)

// Session is one loaded model. A Session is exclusively owned by its creator
// and must be closed exactly once; Close is idempotent.
type Session interface {
	// Embed returns the pooled embedding for text, L2-normalized to unit
	// length. The returned slice has length Dimension and is owned by the
	// caller.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Dimension returns the embedding vector dimension.
	Dimension() int

	// Close releases the model session and its tensors.
	Close() error
}

// Options configures session creation.
type Options struct {
	// CacheDir is where downloaded weights are stored. Empty means
	// ~/.cache/umekomi/models.
	CacheDir string
	// UseMock selects the deterministic mock session (no model files needed).
	UseMock bool
	// Logger receives download and load progress. Nil disables logging.
	Logger *zap.Logger
}

// Open loads the model described by spec and returns a ready Session.
// The first call for a model may block while weights are downloaded;
// subsequent calls reuse the on-disk cache. Concurrent opens of the same
// model never trigger duplicate downloads.
func Open(ctx context.Context, spec catalog.ModelSpec, opts Options) (Session, error) {
	if opts.UseMock {
		return NewMockSession(spec.Dimension), nil
	}

	modelDir, err := EnsureModel(ctx, spec, opts.CacheDir, opts.Logger)
	if err != nil {
		return nil, fmt.Errorf("acquire model %s: %w", spec.Name, err)
	}

	sess, err := newONNXSession(modelDir, spec)
	if err != nil {
		return nil, fmt.Errorf("load model %s: %w", spec.Name, err)
	}
	if opts.Logger != nil {
		opts.Logger.Info("model session ready",
			zap.String("model", spec.Name),
			zap.String("dir", modelDir),
			zap.Int("dimension", spec.Dimension),
		)
	}
	return sess, nil
}
