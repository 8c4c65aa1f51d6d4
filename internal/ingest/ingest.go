// Package ingest loads campus documents into the vector store: it walks a
// directory, flattens markdown to text, splits it into overlapping chunks
// and indexes them by source and language.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ziadkadry99/faqbot/internal/lang"
	"github.com/ziadkadry99/faqbot/internal/vectordb"
)

// Options configures an Ingester.
type Options struct {
	Include      []string
	Exclude      []string
	ChunkSize    int
	ChunkOverlap int
	// DefaultLanguage is used when neither the path nor the script decides.
	DefaultLanguage lang.Code
	Reporter        Reporter
	Logger          zerolog.Logger
	Clock           func() time.Time
}

// Stats summarizes one ingestion run.
type Stats struct {
	Files     int
	Indexed   int
	Unchanged int
	Chunks    int
	Failed    int
}

// Ingester indexes documents into a vector store.
type Ingester struct {
	store vectordb.VectorStore
	opts  Options
}

// New creates an Ingester.
func New(store vectordb.VectorStore, opts Options) *Ingester {
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = DefaultChunkSize
	}
	if opts.ChunkOverlap < 0 || opts.ChunkOverlap >= opts.ChunkSize {
		opts.ChunkOverlap = DefaultChunkOverlap
	}
	if opts.DefaultLanguage == "" {
		opts.DefaultLanguage = lang.English
	}
	if opts.Reporter == nil {
		opts.Reporter = nopReporter{}
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &Ingester{store: store, opts: opts}
}

// Run ingests every document under root. Files whose content hash matches
// what is already indexed are skipped; changed files replace their chunks.
// A file that fails is logged and counted, not fatal.
func (in *Ingester) Run(ctx context.Context, root string) (Stats, error) {
	files, err := Walk(WalkConfig{Root: root, Include: in.opts.Include, Exclude: in.opts.Exclude})
	if err != nil {
		return Stats{}, err
	}

	stats := Stats{Files: len(files)}
	rep := in.opts.Reporter
	rep.Start(len(files))
	defer rep.Finish()

	for i, f := range files {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		rep.Update(i+1, f.RelPath)

		n, err := in.ingestFile(ctx, f)
		switch {
		case err != nil:
			stats.Failed++
			in.opts.Logger.Warn().Err(err).Str("source", f.RelPath).Msg("document not ingested")
		case n == 0:
			stats.Unchanged++
		default:
			stats.Indexed++
			stats.Chunks += n
		}
	}
	return stats, nil
}

func (in *Ingester) ingestFile(ctx context.Context, f File) (int, error) {
	existing, err := in.store.GetBySource(ctx, f.RelPath)
	if err != nil {
		return 0, fmt.Errorf("looking up %s: %w", f.RelPath, err)
	}
	if len(existing) > 0 && existing[0].Metadata.ContentHash == f.ContentHash {
		return 0, nil
	}

	src, err := os.ReadFile(f.Path)
	if err != nil {
		return 0, fmt.Errorf("reading %s: %w", f.RelPath, err)
	}
	return in.replace(ctx, f.RelPath, len(existing) > 0, in.Documents(f.RelPath, f.ContentHash, src))
}

// IngestSource indexes one document held in memory under relPath, the way
// Run indexes a file found under its root. It returns the number of chunks
// indexed; zero means the content was already indexed or had no text.
// Paths outside the include globs, binary and oversized content are
// rejected with ErrRejected.
func (in *Ingester) IngestSource(ctx context.Context, relPath string, src []byte) (int, error) {
	relPath, err := CleanSource(relPath)
	if err != nil {
		return 0, err
	}
	if len(in.opts.Include) > 0 && !matchesAny(relPath, in.opts.Include) {
		return 0, fmt.Errorf("%w: %s does not match %v", ErrRejected, relPath, in.opts.Include)
	}
	if matchesAny(relPath, in.opts.Exclude) {
		return 0, fmt.Errorf("%w: %s is excluded", ErrRejected, relPath)
	}
	if int64(len(src)) > DefaultMaxFileSize {
		return 0, fmt.Errorf("%w: %s is larger than %d bytes", ErrRejected, relPath, DefaultMaxFileSize)
	}
	if hasNUL(src) {
		return 0, fmt.Errorf("%w: %s is not a text document", ErrRejected, relPath)
	}

	hash := hashBytes(src)
	existing, err := in.store.GetBySource(ctx, relPath)
	if err != nil {
		return 0, fmt.Errorf("looking up %s: %w", relPath, err)
	}
	if len(existing) > 0 && existing[0].Metadata.ContentHash == hash {
		return 0, nil
	}
	return in.replace(ctx, relPath, len(existing) > 0, in.Documents(relPath, hash, src))
}

// replace swaps the indexed chunks of source for docs.
func (in *Ingester) replace(ctx context.Context, source string, stale bool, docs []vectordb.Document) (int, error) {
	if stale {
		if err := in.store.DeleteBySource(ctx, source); err != nil {
			return 0, fmt.Errorf("removing stale chunks of %s: %w", source, err)
		}
	}
	if len(docs) == 0 {
		return 0, nil
	}
	if err := in.store.AddDocuments(ctx, docs); err != nil {
		return 0, fmt.Errorf("indexing %s: %w", source, err)
	}
	return len(docs), nil
}

// ErrRejected marks a document IngestSource refuses to index.
var ErrRejected = errors.New("document rejected")

// CleanSource normalizes a client supplied source name to a relative
// slash path.
func CleanSource(name string) (string, error) {
	name = strings.TrimSpace(strings.ReplaceAll(name, "\\", "/"))
	if name == "" {
		return "", fmt.Errorf("%w: empty source name", ErrRejected)
	}
	clean := path.Clean(name)
	if path.IsAbs(clean) || clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", fmt.Errorf("%w: invalid source name %q", ErrRejected, name)
	}
	return clean, nil
}

// Documents turns one source file into vector store documents.
func (in *Ingester) Documents(relPath, hash string, src []byte) []vectordb.Document {
	body, title := Extract(relPath, src)
	if title == "" {
		title = strings.TrimSuffix(path.Base(relPath), path.Ext(relPath))
	}
	code := DocumentLanguage(relPath, body, in.opts.DefaultLanguage)
	now := in.opts.Clock()

	chunks := Split(body, in.opts.ChunkSize, in.opts.ChunkOverlap)
	docs := make([]vectordb.Document, 0, len(chunks))
	for i, c := range chunks {
		docs = append(docs, vectordb.Document{
			ID:      fmt.Sprintf("%s#%d", relPath, i),
			Content: c,
			Metadata: vectordb.DocumentMetadata{
				Source:      relPath,
				Title:       title,
				Language:    string(code),
				ChunkIndex:  i,
				ContentHash: hash,
				LastUpdated: now,
			},
		})
	}
	return docs
}

// DocumentLanguage decides the language of a document: a language suffix
// ("fees.hi.md") wins, then a leading language directory ("hi/fees.md"),
// then the script of its text.
func DocumentLanguage(relPath, body string, def lang.Code) lang.Code {
	name := strings.TrimSuffix(path.Base(relPath), path.Ext(relPath))
	if ext := path.Ext(name); ext != "" {
		if code, err := lang.ParseCode(ext[1:]); err == nil {
			return code
		}
	}
	if dir, _, ok := strings.Cut(relPath, "/"); ok {
		if code, err := lang.ParseCode(dir); err == nil {
			return code
		}
	}
	code, _ := lang.ScriptDetector{Default: def}.Detect(context.Background(), body)
	return code
}
