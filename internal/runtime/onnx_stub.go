//go:build !cgo
// +build !cgo

package runtime

import (
	"errors"

	"github.com/kotoba-ml/umekomi/internal/catalog"
)

// newONNXSession fails when built without CGO; ONNX inference needs the
// onnxruntime shared library.
func newONNXSession(_ string, _ catalog.ModelSpec) (Session, error) {
	return nil, errors.New("ONNX inference requires CGO; build with CGO_ENABLED=1 and onnxruntime installed")
}
