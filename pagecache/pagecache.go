// Package pagecache renders PDF pages on demand while keeping at most one
// open renderer session per document.
//
// Each document reference maps to an entry holding the open
// pdfrenderer.Document and a one-slot lock. Every use of the Document,
// including Close, happens while holding that lock, so a single renderer
// handle is never used from two goroutines. The entry map has its own lock
// and is never held while a document is being opened or rendered.
package pagecache

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"sync"

	"github.com/drummonds/pdfmanager/engine/pdfrenderer"
	"github.com/drummonds/pdfmanager/pdf"
)

// Logger is global since we will need it everywhere
var Logger = slog.Default()

// ErrPageOutOfRange is returned when the page index is outside [0, PageCount)
var ErrPageOutOfRange = pdfrenderer.ErrPageOutOfRange

// Resolver maps a document reference to a path the renderer can open
type Resolver func(uri string) (string, error)

// Option configures a Cache
type Option func(*Cache)

// WithMaxDocuments bounds the number of open documents. When the bound is
// exceeded the least recently used idle document is closed. Zero means
// unbounded.
func WithMaxDocuments(n int) Option {
	return func(c *Cache) {
		if n > 0 {
			c.maxDocuments = n
		}
	}
}

// WithResolver replaces the default file:// resolver
func WithResolver(resolve Resolver) Option {
	return func(c *Cache) {
		c.resolve = resolve
	}
}

// Cache is safe for concurrent use.
type Cache struct {
	renderer     pdfrenderer.Renderer
	resolve      Resolver
	maxDocuments int

	mu      sync.Mutex
	entries map[string]*entry
	tick    uint64
}

type entry struct {
	lock chan struct{}
	doc  pdfrenderer.Document // nil once closed or if the open failed

	// guarded by Cache.mu
	refs     int
	lastUsed uint64
}

func newEntry() *entry {
	return &entry{lock: make(chan struct{}, 1)}
}

func (e *entry) acquire(ctx context.Context) error {
	select {
	case e.lock <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (e *entry) release() {
	<-e.lock
}

// closeLocked closes the document; the caller holds e.lock
func (e *entry) closeLocked(uri string) {
	if e.doc == nil {
		return
	}
	if err := e.doc.Close(); err != nil {
		Logger.Warn("Failed to close renderer session", "uri", uri, "error", err)
	}
	e.doc = nil
}

// New creates an empty cache backed by renderer
func New(renderer pdfrenderer.Renderer, opts ...Option) *Cache {
	c := &Cache{
		renderer: renderer,
		resolve:  pdf.PathFromURI,
		entries:  make(map[string]*entry),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RenderPage renders page pageIndex of the document at targetWidth pixels
// wide, opening the document on first use. A targetWidth below one is
// treated as one.
func (c *Cache) RenderPage(ctx context.Context, uri string, pageIndex int, targetWidth int) (image.Image, error) {
	if targetWidth < 1 {
		targetWidth = 1
	}
	var img image.Image
	err := c.withDocument(ctx, uri, func(doc pdfrenderer.Document) error {
		count := doc.PageCount()
		if pageIndex < 0 || pageIndex >= count {
			return fmt.Errorf("%w: page %d of %d in %s", ErrPageOutOfRange, pageIndex, count, uri)
		}
		var err error
		img, err = doc.RenderPage(pageIndex, targetWidth)
		return err
	})
	if err != nil {
		return nil, err
	}
	return img, nil
}

// PageCount returns the number of pages, opening the document on first use
func (c *Cache) PageCount(ctx context.Context, uri string) (int, error) {
	var count int
	err := c.withDocument(ctx, uri, func(doc pdfrenderer.Document) error {
		count = doc.PageCount()
		return nil
	})
	return count, err
}

// Evict closes and forgets the session for uri, waiting for any render in progress
func (c *Cache) Evict(uri string) {
	c.mu.Lock()
	e, ok := c.entries[uri]
	if ok {
		delete(c.entries, uri)
	}
	c.mu.Unlock()
	if !ok {
		return
	}

	e.lock <- struct{}{}
	e.closeLocked(uri)
	e.release()
}

// CloseAll closes every open session and empties the cache. Renders in
// progress finish first. The cache can be used again afterwards.
func (c *Cache) CloseAll() {
	c.mu.Lock()
	entries := c.entries
	c.entries = make(map[string]*entry)
	c.mu.Unlock()

	for uri, e := range entries {
		e.lock <- struct{}{}
		e.closeLocked(uri)
		e.release()
	}
	Logger.Debug("Closed all renderer sessions", "count", len(entries))
}

// Len is the number of documents currently held
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// withDocument runs fn with the entry lock held on an open document for uri
func (c *Cache) withDocument(ctx context.Context, uri string, fn func(pdfrenderer.Document) error) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		c.mu.Lock()
		e, ok := c.entries[uri]
		if !ok {
			e = newEntry()
			// Taken before the entry is published so no one sees it half open
			e.lock <- struct{}{}
			c.entries[uri] = e
		}
		e.refs++
		c.mu.Unlock()

		if !ok {
			if err := c.open(uri, e); err != nil {
				e.release()
				c.mu.Lock()
				if c.entries[uri] == e {
					delete(c.entries, uri)
				}
				e.refs--
				c.mu.Unlock()
				return err
			}
		} else if err := e.acquire(ctx); err != nil {
			c.done(e)
			return err
		}

		if e.doc == nil {
			// Closed by Evict or CloseAll, or its open failed while we waited
			e.release()
			c.done(e)
			continue
		}

		err := fn(e.doc)
		e.release()
		c.done(e)
		return err
	}
}

func (c *Cache) open(uri string, e *entry) error {
	path, err := c.resolve(uri)
	if err != nil {
		return err
	}
	doc, err := c.renderer.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", uri, err)
	}
	e.doc = doc
	Logger.Debug("Opened renderer session", "uri", uri, "pages", doc.PageCount())
	return nil
}

// done drops a reference and trims idle entries above the bound
func (c *Cache) done(e *entry) {
	var victims map[string]*entry

	c.mu.Lock()
	e.refs--
	c.tick++
	e.lastUsed = c.tick
	if c.maxDocuments > 0 {
		for len(c.entries) > c.maxDocuments {
			uri, victim := c.oldestIdleLocked()
			if victim == nil {
				break
			}
			delete(c.entries, uri)
			if victims == nil {
				victims = make(map[string]*entry)
			}
			victims[uri] = victim
		}
	}
	c.mu.Unlock()

	for uri, victim := range victims {
		victim.lock <- struct{}{}
		victim.closeLocked(uri)
		victim.release()
		Logger.Debug("Evicted renderer session", "uri", uri)
	}
}

func (c *Cache) oldestIdleLocked() (string, *entry) {
	var (
		oldestURI string
		oldest    *entry
	)
	for uri, e := range c.entries {
		if e.refs > 0 {
			continue
		}
		if oldest == nil || e.lastUsed < oldest.lastUsed {
			oldestURI, oldest = uri, e
		}
	}
	return oldestURI, oldest
}
