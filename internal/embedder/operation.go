package embedder

import (
	"context"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/kotoba-ml/umekomi/pkg/utils"
)

// normTolerance is how far from unit length a runtime vector may be before
// the operation renormalizes it.
const normTolerance = 1e-6

// EmbedInto embeds text and writes exactly Dimension floats into buf.
// The returned int is the true embedding dimension regardless of outcome.
//
// Failure contract: on any error nothing is written to buf, so callers can
// retry safely (in particular after growing an undersized buffer). Every
// failure is recorded in the instance's last-error slot; success clears it.
func (inst *Instance) EmbedInto(ctx context.Context, text string, buf []float32) (int, error) {
	if e := inst.valid(); e != nil {
		return 0, e
	}
	if !utf8.ValidString(text) {
		e := Errorf(CodeInvalidUTF8, "invalid UTF-8 in input text")
		inst.recordError(e)
		return 0, e
	}
	if inst.logger != nil {
		inst.logger.Debug("embedding text",
			zap.String("session_id", inst.sessionID),
			zap.String("text", utils.Truncate(text, 80)),
		)
	}

	vec, err := inst.embedOne(ctx, text)
	if err != nil {
		inst.recordError(err)
		return 0, err
	}

	dim := len(vec)
	if len(buf) < dim {
		e := Errorf(CodeBufferTooSmall, "buffer too small: need %d but got %d", dim, len(buf))
		inst.recordError(e)
		return dim, e
	}

	copy(buf[:dim], vec)
	inst.clearError()
	return dim, nil
}

// Embed is the allocating convenience form of EmbedInto, used by the CLI and
// HTTP layers.
func (inst *Instance) Embed(ctx context.Context, text string) ([]float32, error) {
	buf := make([]float32, inst.spec.Dimension)
	if _, err := inst.EmbedInto(ctx, text, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// embedOne invokes the runtime for a single text and enforces the dimension
// and unit-norm invariants on the result.
func (inst *Instance) embedOne(ctx context.Context, text string) ([]float32, *Error) {
	vec, err := inst.session.Embed(ctx, text)
	if err != nil {
		return nil, Errorf(CodeEmbeddingFailed, "embedding failed: %v", err)
	}
	if len(vec) != inst.spec.Dimension {
		return nil, Errorf(CodeEmbeddingFailed,
			"embedding failed: model returned %d values, want %d", len(vec), inst.spec.Dimension)
	}
	if !utils.IsNormalized(vec, normTolerance) {
		utils.NormalizeL2(vec)
	}
	return vec, nil
}
