// Package modelcache persists compiled model artifacts keyed by content hash,
// so repeated runs of the same model text skip recompilation.
//
// The key is a domain-separated SHA-256 of the model text. Two distinct
// texts therefore never share a cache entry, and the same text always maps
// to the same file name regardless of who computes it.
//
// There is deliberately no cross-process locking: two processes compiling
// the same model for the first time both compile and both persist, and the
// atomic rename means the last writer wins with no torn reads. That race is
// accepted behavior; first-time compilation is rare and idempotent.
package modelcache

import (
	"context"
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/reactionlab/kinfer/internal/engine"
)

// Domain prefix for content-addressed cache keys. The version suffix leaves
// room for algorithm migration.
const hashDomain = "kinfer/model/v1"

// Hash computes the domain-separated SHA-256 key for model text.
// Format: SHA256(domain + 0x00 + text). The null byte prevents domain/text
// boundary ambiguity.
func Hash(code string) string {
	h := sha256.New()
	h.Write([]byte(hashDomain))
	h.Write([]byte{0x00})
	h.Write([]byte(code))
	return hex.EncodeToString(h.Sum(nil))
}

// Filename builds the cache file name for a model name and content hash.
// An empty model name falls back to the generic "model" form.
func Filename(modelName, hash string) string {
	if modelName == "" {
		return fmt.Sprintf("cached-model-%s.gob", hash)
	}
	return fmt.Sprintf("cached-%s-%s.gob", modelName, hash)
}

// Cache loads and stores compiled model artifacts under Dir, compiling
// through Engine on a miss.
type Cache struct {
	Dir    string
	Engine engine.Engine
}

// New returns a cache rooted at dir that compiles through eng.
func New(dir string, eng engine.Engine) *Cache {
	return &Cache{Dir: dir, Engine: eng}
}

// Get returns a runnable model for the given text, reusing a persisted
// artifact when one exists. The returned bool reports a cache hit.
//
// Any failure to read or decode an existing cache file is treated as a miss
// and logged; only compilation or persistence failures surface as errors.
func (c *Cache) Get(ctx context.Context, code, modelName string) (engine.CompiledModel, bool, error) {
	hash := Hash(code)
	path := filepath.Join(c.Dir, Filename(modelName, hash))

	if art, err := readArtifact(path); err == nil {
		slog.Info("using cached model", "model", modelName, "path", path)
		model, loadErr := c.Engine.Load(art)
		if loadErr == nil {
			return model, true, nil
		}
		slog.Warn("cached model unusable, recompiling", "path", path, "error", loadErr)
	} else if !os.IsNotExist(err) {
		slog.Warn("cache read failed, recompiling", "path", path, "error", err)
	}

	model, err := c.Engine.Compile(ctx, code, modelName)
	if err != nil {
		return nil, false, fmt.Errorf("compile model %q: %w", modelName, err)
	}

	art := model.Artifact()
	art.CodeHash = hash
	if err := writeArtifact(path, art); err != nil {
		return nil, false, fmt.Errorf("persist model %q: %w", modelName, err)
	}
	slog.Info("model compiled and cached", "model", modelName, "path", path)
	return model, false, nil
}

// readArtifact decodes a persisted artifact. Returns the open/decode error
// so callers can distinguish "absent" from "corrupt"; both are cache misses.
func readArtifact(path string) (*engine.Artifact, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var art engine.Artifact
	if err := gob.NewDecoder(f).Decode(&art); err != nil {
		return nil, fmt.Errorf("decode artifact: %w", err)
	}
	return &art, nil
}

// writeArtifact persists an artifact with write-to-temp plus atomic rename,
// so concurrent writers cannot leave a torn file behind.
func writeArtifact(path string, art *engine.Artifact) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := gob.NewEncoder(tmp).Encode(art); err != nil {
		tmp.Close()
		return fmt.Errorf("encode artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename into place: %w", err)
	}
	return nil
}
