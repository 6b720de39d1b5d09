package embedder

import (
	"context"
	"unicode/utf8"
)

// EmbedBatchInto embeds texts in order and flattens the results into buf:
// the vector for texts[i] occupies buf[i*dim:(i+1)*dim].
//
// The batch is atomic. Capacity is validated against len(texts)*Dimension
// before any inference runs, and results are staged internally, so a failure
// on any text (invalid UTF-8, runtime error) leaves buf completely untouched.
// A partially-filled flattened buffer would give the caller no way to tell
// valid slots from garbage, so the contract is all-or-nothing.
//
// Returns the per-text dimension and the total number of floats written
// (len(texts)*dim on success, 0 on any failure).
func (inst *Instance) EmbedBatchInto(ctx context.Context, texts []string, buf []float32) (dim, written int, err error) {
	if e := inst.valid(); e != nil {
		return 0, 0, e
	}

	dim = inst.spec.Dimension
	need := len(texts) * dim
	if len(buf) < need {
		e := Errorf(CodeBufferTooSmall,
			"buffer too small: need %d floats for %d texts but got %d", need, len(texts), len(buf))
		inst.recordError(e)
		return dim, 0, e
	}

	staged := make([]float32, 0, need)
	for i, text := range texts {
		if !utf8.ValidString(text) {
			e := Errorf(CodeInvalidUTF8, "invalid UTF-8 at text %d", i)
			inst.recordError(e)
			return dim, 0, e
		}
		vec, embErr := inst.embedOne(ctx, text)
		if embErr != nil {
			e := Errorf(embErr.Code, "%s (text %d)", embErr.Message, i)
			inst.recordError(e)
			return dim, 0, e
		}
		staged = append(staged, vec...)
	}

	copy(buf[:need], staged)
	inst.clearError()
	return dim, need, nil
}

// EmbedBatch is the allocating convenience form of EmbedBatchInto.
func (inst *Instance) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	buf := make([]float32, len(texts)*inst.spec.Dimension)
	dim, _, err := inst.EmbedBatchInto(ctx, texts, buf)
	if err != nil {
		return nil, err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = buf[i*dim : (i+1)*dim : (i+1)*dim]
	}
	return out, nil
}
