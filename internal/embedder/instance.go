// Package embedder implements the embedding service core: instance
// lifecycle, the buffer-based output protocol, atomic batch flattening, and
// the per-instance error slot consumed by the C boundary.
package embedder

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kotoba-ml/umekomi/internal/catalog"
	"github.com/kotoba-ml/umekomi/internal/runtime"
)

// Options configures instance creation.
type Options struct {
	// CacheDir overrides the model weight cache location.
	CacheDir string
	// UseMock selects the deterministic mock runtime.
	UseMock bool
	// Logger receives lifecycle events. Nil disables logging.
	Logger *zap.Logger
}

// Instance owns one loaded model session plus the mutable last-error slot.
// Operations on one instance are intended for a single caller thread at a
// time; independent instances may be used fully in parallel.
type Instance struct {
	spec      catalog.ModelSpec
	session   runtime.Session
	sessionID string
	logger    *zap.Logger

	mu      sync.Mutex
	lastErr string
	hasErr  bool
	freed   bool
}

// Open resolves modelName against the catalog, loads the model runtime (which
// may block on first use while weights download), and returns a live
// instance. On failure no instance exists; the error always carries
// CodeInitializationFailed.
func Open(ctx context.Context, modelName string, opts Options) (*Instance, error) {
	spec, err := catalog.Resolve(modelName)
	if err != nil {
		return nil, Errorf(CodeInitializationFailed, "initialization failed: %v", err)
	}

	session, err := runtime.Open(ctx, spec, runtime.Options{
		CacheDir: opts.CacheDir,
		UseMock:  opts.UseMock,
		Logger:   opts.Logger,
	})
	if err != nil {
		return nil, Errorf(CodeInitializationFailed, "initialization failed: %v", err)
	}

	inst := &Instance{
		spec:      spec,
		session:   session,
		sessionID: uuid.NewString(),
		logger:    opts.Logger,
	}
	if inst.logger != nil {
		inst.logger.Info("embedder instance opened",
			zap.String("model", spec.Name),
			zap.String("session_id", inst.sessionID),
			zap.Int("dimension", spec.Dimension),
		)
	}
	return inst, nil
}

// Spec returns the instance's model spec.
func (inst *Instance) Spec() catalog.ModelSpec { return inst.spec }

// SessionID returns the unique ID assigned at Open, used in logs.
func (inst *Instance) SessionID() string { return inst.sessionID }

// Dimension returns the model's embedding dimension.
func (inst *Instance) Dimension() int { return inst.spec.Dimension }

// Close releases the runtime session and the retained error string.
// Idempotent: the second and later calls return nil without effect.
func (inst *Instance) Close() error {
	inst.mu.Lock()
	if inst.freed {
		inst.mu.Unlock()
		return nil
	}
	inst.freed = true
	inst.lastErr = ""
	inst.hasErr = false
	inst.mu.Unlock()

	err := inst.session.Close()
	if inst.logger != nil {
		inst.logger.Info("embedder instance closed",
			zap.String("model", inst.spec.Name),
			zap.String("session_id", inst.sessionID),
		)
	}
	return err
}

// valid returns an InvalidHandle error when the instance has been freed.
func (inst *Instance) valid() *Error {
	inst.mu.Lock()
	defer inst.mu.Unlock()
	if inst.freed {
		return Errorf(CodeInvalidHandle, "instance already freed")
	}
	return nil
}

// recordError stores e in the last-error slot, overwriting any previous one.
func (inst *Instance) recordError(e *Error) {
	inst.mu.Lock()
	inst.lastErr = e.Message
	inst.hasErr = true
	inst.mu.Unlock()
}

// clearError empties the last-error slot; called on every success.
func (inst *Instance) clearError() {
	inst.mu.Lock()
	inst.lastErr = ""
	inst.hasErr = false
	inst.mu.Unlock()
}

// RecordBoundaryError stores a failure detected by the boundary layer before
// the operation could run (for example a null text pointer in a batch), so
// get_last_error can report it like any other failure.
func (inst *Instance) RecordBoundaryError(e *Error) {
	inst.recordError(e)
}

// LastError returns the stored message and whether one is present.
func (inst *Instance) LastError() (string, bool) {
	inst.mu.Lock()
	defer inst.mu.Unlock()
	return inst.lastErr, inst.hasErr
}
