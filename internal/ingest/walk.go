package ingest

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultMaxFileSize is the largest document ingested (1 MB).
const DefaultMaxFileSize int64 = 1 << 20

// skipDirs are never descended into.
var skipDirs = []string{".git", "node_modules", "vendor", "__pycache__", ".venv", ".idea", ".vscode"}

// File is a document discovered under the ingestion root.
type File struct {
	Path        string // absolute path on disk
	RelPath     string // slash-separated path relative to the root
	Size        int64
	ContentHash string // SHA-256 hex digest
}

// WalkConfig controls Walk.
type WalkConfig struct {
	Root        string
	Include     []string // doublestar globs; empty includes everything
	Exclude     []string
	MaxFileSize int64
}

// Walk returns every text document under cfg.Root that passes the include
// and exclude globs, in lexical order. Binary and oversized files are skipped.
func Walk(cfg WalkConfig) ([]File, error) {
	root, err := filepath.Abs(cfg.Root)
	if err != nil {
		return nil, fmt.Errorf("ingest: resolve root: %w", err)
	}
	maxSize := cfg.MaxFileSize
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}

	var files []File
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if path == root {
				return walkErr
			}
			// Skip entries we cannot read instead of aborting.
			return nil
		}
		if d.IsDir() {
			if path != root && skipDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if len(cfg.Include) > 0 && !matchesAny(rel, cfg.Include) {
			return nil
		}
		if matchesAny(rel, cfg.Exclude) {
			return nil
		}

		info, err := d.Info()
		if err != nil || info.Size() > maxSize || isBinary(path) {
			return nil
		}
		hash, err := hashFile(path)
		if err != nil {
			return nil
		}

		files = append(files, File{Path: path, RelPath: rel, Size: info.Size(), ContentHash: hash})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ingest: walking %s: %w", root, err)
	}
	return files, nil
}

func skipDir(name string) bool {
	for _, s := range skipDirs {
		if strings.EqualFold(name, s) {
			return true
		}
	}
	return false
}

// matchesAny matches relPath, and its base name, against doublestar globs.
func matchesAny(relPath string, patterns []string) bool {
	base := filepath.Base(relPath)
	for _, pattern := range patterns {
		pattern = filepath.ToSlash(pattern)
		if ok, err := doublestar.Match(pattern, relPath); err == nil && ok {
			return true
		}
		if ok, err := doublestar.Match(pattern, base); err == nil && ok {
			return true
		}
	}
	return false
}

// isBinary looks for NUL bytes in the first 512 bytes.
func isBinary(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return true
	}
	defer f.Close()

	buf := make([]byte, 512)
	n, err := f.Read(buf)
	if err != nil && err != io.EOF {
		return true
	}
	return hasNUL(buf[:n])
}

// hasNUL reports a NUL byte in the first 512 bytes of b.
func hasNUL(b []byte) bool {
	if len(b) > 512 {
		b = b[:512]
	}
	return bytes.IndexByte(b, 0) >= 0
}

func hashBytes(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
