//go:build cgo
// +build cgo

package runtime

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/kotoba-ml/umekomi/internal/catalog"
	"github.com/kotoba-ml/umekomi/pkg/utils"
)

// The ONNX runtime environment is process-wide. It is initialized when the
// first session opens and destroyed when the last one closes.
var (
	envMu   sync.Mutex
	envRefs int
)

func acquireEnvironment() error {
	envMu.Lock()
	defer envMu.Unlock()
	if envRefs == 0 && !ort.IsInitialized() {
		if err := ort.InitializeEnvironment(); err != nil {
			return fmt.Errorf("initialize ONNX runtime: %w", err)
		}
	}
	envRefs++
	return nil
}

func releaseEnvironment() {
	envMu.Lock()
	defer envMu.Unlock()
	if envRefs == 0 {
		return
	}
	envRefs--
	if envRefs == 0 {
		_ = ort.DestroyEnvironment()
	}
}

// onnxSession runs BERT-style inference over a fixed-length input. Tensors
// are allocated once; Embed copies new token IDs in and reads the hidden
// states out, so Run is serialized with a mutex.
type onnxSession struct {
	session   *ort.AdvancedSession
	spec      catalog.ModelSpec
	tokenizer *WordPieceTokenizer

	inputIDsTensor      *ort.Tensor[int64]
	attentionMaskTensor *ort.Tensor[int64]
	tokenTypeIDsTensor  *ort.Tensor[int64]
	outputTensor        *ort.Tensor[float32]

	mu     sync.Mutex
	closed bool
}

// newONNXSession loads model.onnx and vocab.txt from modelDir and prepares
// the inference session for spec.
func newONNXSession(modelDir string, spec catalog.ModelSpec) (*onnxSession, error) {
	vocab, err := LoadVocab(filepath.Join(modelDir, vocabFileName))
	if err != nil {
		return nil, err
	}
	tokenizer := NewWordPieceTokenizer(vocab)

	if err := acquireEnvironment(); err != nil {
		return nil, err
	}

	maxTokens := int64(spec.MaxTokens)
	inputIDs, attentionMask, tokenTypeIDs := tokenizer.Tokenize("", spec.MaxTokens)

	inputIDsTensor, err := ort.NewTensor(ort.NewShape(1, maxTokens), inputIDs)
	if err != nil {
		releaseEnvironment()
		return nil, fmt.Errorf("create input_ids tensor: %w", err)
	}
	attentionMaskTensor, err := ort.NewTensor(ort.NewShape(1, maxTokens), attentionMask)
	if err != nil {
		inputIDsTensor.Destroy()
		releaseEnvironment()
		return nil, fmt.Errorf("create attention_mask tensor: %w", err)
	}
	tokenTypeIDsTensor, err := ort.NewTensor(ort.NewShape(1, maxTokens), tokenTypeIDs)
	if err != nil {
		inputIDsTensor.Destroy()
		attentionMaskTensor.Destroy()
		releaseEnvironment()
		return nil, fmt.Errorf("create token_type_ids tensor: %w", err)
	}

	// last_hidden_state is (1, sequence, hidden); pooling happens in Go.
	outputData := make([]float32, spec.MaxTokens*spec.Dimension)
	outputTensor, err := ort.NewTensor(ort.NewShape(1, maxTokens, int64(spec.Dimension)), outputData)
	if err != nil {
		inputIDsTensor.Destroy()
		attentionMaskTensor.Destroy()
		tokenTypeIDsTensor.Destroy()
		releaseEnvironment()
		return nil, fmt.Errorf("create output tensor: %w", err)
	}

	session, err := ort.NewAdvancedSession(
		filepath.Join(modelDir, modelFileName),
		[]string{"input_ids", "attention_mask", "token_type_ids"},
		[]string{"last_hidden_state"},
		[]ort.ArbitraryTensor{inputIDsTensor, attentionMaskTensor, tokenTypeIDsTensor},
		[]ort.ArbitraryTensor{outputTensor},
		nil,
	)
	if err != nil {
		inputIDsTensor.Destroy()
		attentionMaskTensor.Destroy()
		tokenTypeIDsTensor.Destroy()
		outputTensor.Destroy()
		releaseEnvironment()
		return nil, fmt.Errorf("create ONNX session: %w", err)
	}

	return &onnxSession{
		session:             session,
		spec:                spec,
		tokenizer:           tokenizer,
		inputIDsTensor:      inputIDsTensor,
		attentionMaskTensor: attentionMaskTensor,
		tokenTypeIDsTensor:  tokenTypeIDsTensor,
		outputTensor:        outputTensor,
	}, nil
}

// Embed tokenizes text, runs the model, mean-pools the hidden states over the
// attention mask, and returns the L2-normalized result.
func (s *onnxSession) Embed(ctx context.Context, text string) ([]float32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, fmt.Errorf("session for %s is closed", s.spec.Name)
	}

	inputIDs, attentionMask, tokenTypeIDs := s.tokenizer.Tokenize(text, s.spec.MaxTokens)
	copy(s.inputIDsTensor.GetData(), inputIDs)
	copy(s.attentionMaskTensor.GetData(), attentionMask)
	copy(s.tokenTypeIDsTensor.GetData(), tokenTypeIDs)

	if err := s.session.Run(); err != nil {
		return nil, fmt.Errorf("inference failed: %w", err)
	}

	hidden := s.outputTensor.GetData()
	dim := s.spec.Dimension

	embedding := make([]float32, dim)
	var count float32
	for pos, m := range attentionMask {
		if m == 0 {
			continue
		}
		row := hidden[pos*dim : (pos+1)*dim]
		for i, v := range row {
			embedding[i] += v
		}
		count++
	}
	if count == 0 {
		return nil, fmt.Errorf("text produced no tokens")
	}
	for i := range embedding {
		embedding[i] /= count
	}

	utils.NormalizeL2(embedding)
	return embedding, nil
}

// Dimension returns the embedding dimension.
func (s *onnxSession) Dimension() int {
	return s.spec.Dimension
}

// Close destroys the session and tensors and releases the shared environment.
// Safe to call more than once.
func (s *onnxSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true

	var err error
	if s.session != nil {
		err = s.session.Destroy()
		s.session = nil
	}
	for _, t := range []*ort.Tensor[int64]{s.inputIDsTensor, s.attentionMaskTensor, s.tokenTypeIDsTensor} {
		if t != nil {
			_ = t.Destroy()
		}
	}
	s.inputIDsTensor, s.attentionMaskTensor, s.tokenTypeIDsTensor = nil, nil, nil
	if s.outputTensor != nil {
		_ = s.outputTensor.Destroy()
		s.outputTensor = nil
	}
	releaseEnvironment()
	return err
}
