package runtime

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kotoba-ml/umekomi/internal/catalog"
)

const (
	hfBaseURL     = "https://huggingface.co"
	modelFileName = "model.onnx"
	vocabFileName = "vocab.txt"
)

// downloadClient is shared by all weight downloads. Model files are large,
// so no overall timeout; cancellation comes from the caller's context.
var downloadClient = &http.Client{}

// downloadLocks serializes acquisition per model so that concurrent Open
// calls for the same model never download twice.
var downloadLocks = struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}{locks: make(map[string]*sync.Mutex)}

func lockFor(name string) *sync.Mutex {
	downloadLocks.mu.Lock()
	defer downloadLocks.mu.Unlock()
	l, ok := downloadLocks.locks[name]
	if !ok {
		l = &sync.Mutex{}
		downloadLocks.locks[name] = l
	}
	return l
}

// DefaultCacheDir returns the default location for downloaded model weights.
func DefaultCacheDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".cache", "umekomi", "models")
	}
	return filepath.Join(os.TempDir(), "umekomi", "models")
}

// EnsureModel returns a directory containing model.onnx and vocab.txt for
// spec. The model's environment variable takes precedence: when set, it must
// name a folder already holding both files, and no download is attempted.
// Otherwise the files are fetched from the HuggingFace repo into
// cacheDir/<model name>/ on first use.
func EnsureModel(ctx context.Context, spec catalog.ModelSpec, cacheDir string, logger *zap.Logger) (string, error) {
	if folder := os.Getenv(spec.EnvVar); folder != "" {
		if err := verifyModelDir(folder); err != nil {
			return "", fmt.Errorf("%s=%s: %w", spec.EnvVar, folder, err)
		}
		return folder, nil
	}

	if cacheDir == "" {
		cacheDir = DefaultCacheDir()
	}
	dir := filepath.Join(cacheDir, spec.Name)

	l := lockFor(spec.Name)
	l.Lock()
	defer l.Unlock()

	if verifyModelDir(dir) == nil {
		return dir, nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create cache dir: %w", err)
	}

	if logger != nil {
		logger.Info("downloading model weights",
			zap.String("model", spec.Name),
			zap.String("repo", spec.Repo),
			zap.String("dir", dir),
		)
	}
	start := time.Now()

	vocabDest := filepath.Join(dir, vocabFileName)
	if _, err := os.Stat(vocabDest); err != nil {
		if err := downloadFile(ctx, repoFileURL(spec.Repo, vocabFileName), vocabDest); err != nil {
			return "", fmt.Errorf("download %s: %w", vocabFileName, err)
		}
	}

	modelDest := filepath.Join(dir, modelFileName)
	if _, err := os.Stat(modelDest); err != nil {
		// Repos publish the ONNX export either under onnx/ or at the root.
		var lastErr error
		for _, remote := range []string{"onnx/" + modelFileName, modelFileName} {
			lastErr = downloadFile(ctx, repoFileURL(spec.Repo, remote), modelDest)
			if lastErr == nil {
				break
			}
		}
		if lastErr != nil {
			return "", fmt.Errorf("download %s: %w", modelFileName, lastErr)
		}
	}

	if logger != nil {
		logger.Info("model weights cached",
			zap.String("model", spec.Name),
			zap.Duration("elapsed", time.Since(start)),
		)
	}
	return dir, nil
}

// verifyModelDir checks that dir holds both required model files.
func verifyModelDir(dir string) error {
	for _, name := range []string{modelFileName, vocabFileName} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			return fmt.Errorf("missing %s: %w", name, err)
		}
	}
	return nil
}

func repoFileURL(repo, file string) string {
	return fmt.Sprintf("%s/%s/resolve/main/%s", hfBaseURL, repo, file)
}

// downloadFile fetches url into dest, writing through a temp file so a
// partial download never appears as a valid cached file.
func downloadFile(ctx context.Context, url, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := downloadClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server returned %d for %s", resp.StatusCode, url)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dest), filepath.Base(dest)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write failed: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, dest)
}
