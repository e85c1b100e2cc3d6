package pdf

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/drummonds/pdfmanager/database"
	"github.com/drummonds/pdfmanager/engine/pdfrenderer"
	"github.com/gabriel-vasile/mimetype"
	"github.com/puzpuzpuz/xsync/v3"
	"golang.org/x/sync/errgroup"
)

// Logger is global since we will need it everywhere
var Logger = slog.Default()

var (
	// ErrNotFound is returned for ids that are not in the index
	ErrNotFound = database.ErrNotFound
	// ErrInvalidName is returned by Rename for empty names or names with separators
	ErrInvalidName = errors.New("pdf: invalid file name")
	// ErrExists is returned by Rename when the target already exists
	ErrExists = errors.New("pdf: a file with that name already exists")
)

// fallbackName is used when a reference has no usable file name
const fallbackName = "document.pdf"

// Evicter drops cached renderer sessions for a document
type Evicter interface {
	Evict(uri string)
}

type noEvict struct{}

func (noEvict) Evict(string) {}

// LibraryConfig wires a Library
type LibraryConfig struct {
	Roots    []string
	Workers  int
	Renderer pdfrenderer.Renderer
	DB       database.Repository
	Cache    Evicter
}

// Library indexes the PDFs found under a set of folders
type Library struct {
	roots    []string
	workers  int
	renderer pdfrenderer.Renderer
	db       database.Repository
	cache    Evicter
	memo     *xsync.MapOf[string, inspection]
}

// inspection is what opening a document tells us, valid while size and mtime hold
type inspection struct {
	size    int64
	modTime int64
	pages   int
	locked  bool
}

// NewLibrary creates a library over the configured roots
func NewLibrary(cfg LibraryConfig) *Library {
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	cache := cfg.Cache
	if cache == nil {
		cache = noEvict{}
	}
	return &Library{
		roots:    cfg.Roots,
		workers:  workers,
		renderer: cfg.Renderer,
		db:       cfg.DB,
		cache:    cache,
		memo:     xsync.NewMapOf[string, inspection](),
	}
}

// LoadAll rescans every root and returns the whole index, most recently added first
func (l *Library) LoadAll(ctx context.Context) ([]PdfFile, error) {
	start := time.Now()
	paths, err := l.findPDFs(ctx)
	if err != nil {
		return nil, err
	}

	docs := make([]*database.Document, len(paths))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(l.workers)
	for i, path := range paths {
		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}
			doc, err := l.describe(path)
			if err != nil {
				// vanished between walk and stat
				Logger.Warn("Skipping unreadable PDF", "path", path, "error", err)
				return nil
			}
			docs[i] = doc
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	for _, doc := range docs {
		if doc == nil {
			continue
		}
		if err := l.db.SaveDocument(doc); err != nil {
			return nil, fmt.Errorf("unable to index %s: %w", doc.Path, err)
		}
	}

	if err := l.pruneMissing(); err != nil {
		return nil, err
	}

	files, err := l.list()
	if err != nil {
		return nil, err
	}
	Logger.Info("Library scan complete", "found", len(paths), "indexed", len(files), "duration", time.Since(start))
	return files, nil
}

// List returns the current index without rescanning
func (l *Library) List() ([]PdfFile, error) {
	return l.list()
}

func (l *Library) list() ([]PdfFile, error) {
	documents, err := database.FetchAllDocuments(l.db)
	if err != nil {
		return nil, err
	}
	files := make([]PdfFile, 0, len(documents))
	for _, doc := range documents {
		files = append(files, FromDocument(doc))
	}
	return files, nil
}

// LoadMetadata describes and indexes a single document, for example one that was
// uploaded or produced by a merge.
func (l *Library) LoadMetadata(ctx context.Context, uri string) (PdfFile, error) {
	if err := ctx.Err(); err != nil {
		return PdfFile{}, err
	}
	path, err := PathFromURI(uri)
	if err != nil {
		return PdfFile{}, err
	}
	doc, err := l.describe(path)
	if err != nil {
		return PdfFile{}, err
	}
	if err := l.db.SaveDocument(doc); err != nil {
		return PdfFile{}, fmt.Errorf("unable to index %s: %w", path, err)
	}
	return FromDocument(*doc), nil
}

// Get looks up a document by id
func (l *Library) Get(id string) (PdfFile, error) {
	doc, err := l.db.GetDocumentByULID(id)
	if err != nil {
		return PdfFile{}, err
	}
	return FromDocument(*doc), nil
}

// GetMany looks up documents by id, keeping the given order
func (l *Library) GetMany(ids []string) ([]PdfFile, error) {
	files := make([]PdfFile, 0, len(ids))
	for _, id := range ids {
		file, err := l.Get(id)
		if err != nil {
			return nil, fmt.Errorf("document %s: %w", id, err)
		}
		files = append(files, file)
	}
	return files, nil
}

// Rename renames the file on disk, keeping its folder. ".pdf" is appended when missing.
func (l *Library) Rename(ctx context.Context, id string, newName string) (PdfFile, error) {
	if err := ctx.Err(); err != nil {
		return PdfFile{}, err
	}
	newName = strings.TrimSpace(newName)
	if newName == "" || newName == "." || newName == ".." || strings.ContainsAny(newName, `/\`) {
		return PdfFile{}, fmt.Errorf("%w: %q", ErrInvalidName, newName)
	}
	if !strings.EqualFold(filepath.Ext(newName), ".pdf") {
		newName += ".pdf"
	}

	doc, err := l.db.GetDocumentByULID(id)
	if err != nil {
		return PdfFile{}, err
	}
	newPath := filepath.Join(filepath.Dir(doc.Path), newName)
	if newPath == doc.Path {
		return FromDocument(*doc), nil
	}
	if _, err := os.Stat(newPath); err == nil {
		return PdfFile{}, fmt.Errorf("%w: %s", ErrExists, newName)
	}

	if err := os.Rename(doc.Path, newPath); err != nil {
		return PdfFile{}, fmt.Errorf("unable to rename %s: %w", doc.Name, err)
	}
	l.forget(doc.URI)
	if err := l.db.UpdateDocumentLocation(id, FileURI(newPath), newPath, newName); err != nil {
		return PdfFile{}, err
	}
	Logger.Info("Renamed PDF", "from", doc.Path, "to", newPath)
	return l.Get(id)
}

// Delete removes the file and its index entry
func (l *Library) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	doc, err := l.db.GetDocumentByULID(id)
	if err != nil {
		return err
	}
	l.forget(doc.URI)
	if err := os.Remove(doc.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("unable to delete %s: %w", doc.Name, err)
	}
	if err := l.db.DeleteDocument(id); err != nil {
		return err
	}
	Logger.Info("Deleted PDF", "path", doc.Path)
	return nil
}

// Forget drops cached metadata and renderer sessions after a file was rewritten in place
func (l *Library) Forget(uri string) {
	l.forget(uri)
}

func (l *Library) forget(uri string) {
	l.memo.Delete(uri)
	l.cache.Evict(uri)
}

// findPDFs walks every root and keeps files whose content is a PDF
func (l *Library) findPDFs(ctx context.Context) ([]string, error) {
	seen := make(map[string]bool)
	var paths []string
	for _, root := range l.roots {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				if errors.Is(err, fs.ErrNotExist) && path == root {
					Logger.Warn("Library folder does not exist", "root", root)
					return filepath.SkipDir
				}
				Logger.Warn("Unable to read library path", "path", path, "error", err)
				return nil
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			if d.IsDir() {
				if path != root && strings.HasPrefix(d.Name(), ".") {
					return filepath.SkipDir
				}
				return nil
			}
			if !d.Type().IsRegular() || seen[path] {
				return nil
			}
			mtype, err := mimetype.DetectFile(path)
			if err != nil {
				Logger.Debug("Unable to detect file type", "path", path, "error", err)
				return nil
			}
			if !mtype.Is("application/pdf") {
				return nil
			}
			seen[path] = true
			paths = append(paths, path)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return paths, nil
}

// describe stats and inspects a file into an index row
func (l *Library) describe(path string) (*database.Document, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a folder", abs)
	}

	uri := FileURI(abs)
	seen := l.inspect(uri, abs, info)

	name := filepath.Base(abs)
	if name == "" || name == "." || name == string(filepath.Separator) {
		name = fallbackName
	}

	created := info.ModTime().Unix()
	if created <= 0 {
		created = time.Now().Unix()
	}

	id, err := database.CalculateUUID(time.Now())
	if err != nil {
		return nil, err
	}

	return &database.Document{
		ULID:          id,
		URI:           uri,
		Path:          abs,
		Name:          name,
		Folder:        filepath.Dir(abs),
		SizeBytes:     info.Size(),
		PagesCount:    seen.pages,
		Locked:        seen.locked,
		CreatedEpoch:  created,
		ModifiedEpoch: info.ModTime().Unix(),
		IndexedAt:     time.Now(),
	}, nil
}

// inspect opens the document once to read its page count. Any failure to
// open, including a password prompt, marks it locked with zero pages.
func (l *Library) inspect(uri, path string, info fs.FileInfo) inspection {
	if cached, ok := l.memo.Load(uri); ok &&
		cached.size == info.Size() && cached.modTime == info.ModTime().UnixNano() {
		return cached
	}

	result := inspection{size: info.Size(), modTime: info.ModTime().UnixNano()}
	doc, err := l.renderer.Open(path)
	if err != nil {
		if !errors.Is(err, pdfrenderer.ErrPasswordRequired) {
			Logger.Debug("PDF could not be opened, treating as locked", "path", path, "error", err)
		}
		result.locked = true
	} else {
		result.pages = doc.PageCount()
		if err := doc.Close(); err != nil {
			Logger.Warn("Failed to close inspection session", "path", path, "error", err)
		}
	}

	l.memo.Store(uri, result)
	return result
}

// pruneMissing drops index entries whose file is gone
func (l *Library) pruneMissing() error {
	documents, err := database.FetchAllDocuments(l.db)
	if err != nil {
		return err
	}
	for _, doc := range documents {
		if _, err := os.Stat(doc.Path); !errors.Is(err, fs.ErrNotExist) {
			continue
		}
		Logger.Info("Removing vanished PDF from index", "path", doc.Path)
		l.forget(doc.URI)
		if err := l.db.DeleteDocument(doc.ULID.String()); err != nil && !errors.Is(err, database.ErrNotFound) {
			return err
		}
	}
	return nil
}
