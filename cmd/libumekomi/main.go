// Package main builds libumekomi, the C-compatible embedding library:
//
//	go build -buildmode=c-shared -o libumekomi.so ./cmd/libumekomi
//
// The exported functions mirror include/umekomi.h. All pointer validation
// happens here, before any other logic; the embedding semantics live in
// internal/embedder. Handles are opaque registry tokens, never Go pointers,
// so nothing Go-managed ever crosses the boundary.
//
// Ownership rules enforced by this layer:
//   - caller buffers are borrowed for the duration of a call only
//   - strings from embedder_get_last_error belong to the caller and must be
//     released exactly once with embedder_free_error
//   - the string from embedder_version is static and must never be freed
package main

/*
#include <stdlib.h>
*/
import "C"

import (
	"context"
	"unicode/utf8"
	"unsafe"

	"github.com/kotoba-ml/umekomi/internal/embedder"
)

// Version reported by embedder_version.
const Version = "0.4.0"

// Allocated once; static for the lifetime of the process.
var versionCString = C.CString(Version)

func toHandle(p unsafe.Pointer) embedder.Handle {
	return embedder.Handle(uintptr(p))
}

func fromHandle(h embedder.Handle) unsafe.Pointer {
	return unsafe.Pointer(uintptr(h))
}

// embedder_init initializes an embedder for model_name ("mini_lm_v2" or
// "jina") and returns an opaque handle, or NULL on failure. The first init
// for a model may block while weights download.
//
//export embedder_init
func embedder_init(modelName *C.char) unsafe.Pointer {
	if modelName == nil {
		return nil
	}
	name := C.GoString(modelName)
	if !utf8.ValidString(name) {
		return nil
	}

	inst, err := embedder.Open(context.Background(), name, embedder.Options{})
	if err != nil {
		return nil
	}
	return fromHandle(embedder.Register(inst))
}

// embedder_embed generates the embedding for text and writes it into
// output_buffer. actual_size receives the true embedding dimension; when
// buffer_size is smaller than that, EMBEDDER_BUFFER_TOO_SMALL is returned
// and the buffer is left untouched so the caller can reallocate and retry.
//
//export embedder_embed
func embedder_embed(
	handle unsafe.Pointer,
	text *C.char,
	outputBuffer *C.float,
	bufferSize C.size_t,
	actualSize *C.size_t,
) C.int {
	if handle == nil {
		return C.int(embedder.CodeInvalidHandle)
	}
	if text == nil || actualSize == nil {
		return C.int(embedder.CodeNullPointer)
	}
	if outputBuffer == nil && bufferSize > 0 {
		return C.int(embedder.CodeNullPointer)
	}

	inst, ok := embedder.Lookup(toHandle(handle))
	if !ok {
		return C.int(embedder.CodeInvalidHandle)
	}

	var buf []float32
	if bufferSize > 0 {
		buf = unsafe.Slice((*float32)(unsafe.Pointer(outputBuffer)), int(bufferSize))
	}

	dim, err := inst.EmbedInto(context.Background(), C.GoString(text), buf)
	if dim > 0 {
		*actualSize = C.size_t(dim)
	}
	return C.int(embedder.CodeOf(err))
}

// embedder_embed_batch embeds num_texts strings and flattens the results
// into output_buffer in input order: the vector for texts[i] occupies
// elements [i*dim, (i+1)*dim). The batch is all-or-nothing: if capacity is
// insufficient or any text fails, no output is written for any text and
// total_written is 0.
//
//export embedder_embed_batch
func embedder_embed_batch(
	handle unsafe.Pointer,
	texts **C.char,
	numTexts C.size_t,
	outputBuffer *C.float,
	bufferSize C.size_t,
	embeddingDim *C.size_t,
	totalWritten *C.size_t,
) C.int {
	if handle == nil {
		return C.int(embedder.CodeInvalidHandle)
	}
	if texts == nil || embeddingDim == nil || totalWritten == nil {
		return C.int(embedder.CodeNullPointer)
	}
	if outputBuffer == nil && bufferSize > 0 {
		return C.int(embedder.CodeNullPointer)
	}

	inst, ok := embedder.Lookup(toHandle(handle))
	if !ok {
		return C.int(embedder.CodeInvalidHandle)
	}

	ptrs := unsafe.Slice(texts, int(numTexts))
	goTexts := make([]string, len(ptrs))
	for i, p := range ptrs {
		if p == nil {
			e := embedder.Errorf(embedder.CodeNullPointer, "null text pointer at index %d", i)
			inst.RecordBoundaryError(e)
			return C.int(e.Code)
		}
		goTexts[i] = C.GoString(p)
	}

	var buf []float32
	if bufferSize > 0 {
		buf = unsafe.Slice((*float32)(unsafe.Pointer(outputBuffer)), int(bufferSize))
	}

	dim, written, err := inst.EmbedBatchInto(context.Background(), goTexts, buf)
	*embeddingDim = C.size_t(dim)
	*totalWritten = C.size_t(written)
	return C.int(embedder.CodeOf(err))
}

// embedder_get_last_error returns the last error message recorded on the
// handle, or NULL when there is none. Ownership of the returned string
// passes to the caller, who must release it exactly once with
// embedder_free_error.
//
//export embedder_get_last_error
func embedder_get_last_error(handle unsafe.Pointer) *C.char {
	if handle == nil {
		return nil
	}
	inst, ok := embedder.Lookup(toHandle(handle))
	if !ok {
		return nil
	}
	msg, has := inst.LastError()
	if !has {
		return nil
	}
	return C.CString(msg)
}

// embedder_free_error releases a string obtained from
// embedder_get_last_error. Calling it with a pointer from any other source,
// or twice with the same pointer, is undefined.
//
//export embedder_free_error
func embedder_free_error(errorStr *C.char) {
	if errorStr != nil {
		C.free(unsafe.Pointer(errorStr))
	}
}

// embedder_free releases the handle and its model session. Idempotent: a
// second call for the same handle is a no-op, and any later operation on the
// handle fails with EMBEDDER_INVALID_HANDLE rather than touching freed
// memory.
//
//export embedder_free
func embedder_free(handle unsafe.Pointer) {
	if handle == nil {
		return
	}
	if inst, ok := embedder.Unregister(toHandle(handle)); ok {
		_ = inst.Close()
	}
}

// embedder_version returns the library version as a static string the caller
// must not free.
//
//export embedder_version
func embedder_version() *C.char {
	return versionCString
}

func main() {}
