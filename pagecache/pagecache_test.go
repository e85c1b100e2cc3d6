package pagecache

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/drummonds/pdfmanager/engine/pdfrenderer"
	"github.com/drummonds/pdfmanager/pdf"
)

// fakeRenderer hands out fakeDocuments and records how they are used
type fakeRenderer struct {
	mu        sync.Mutex
	opens     map[string]int
	failOnce  map[string]bool
	docs      []*fakeDocument
	pages     int
	block     chan struct{} // when set, RenderPage waits on it
	rendering chan struct{} // signalled when a render starts
}

func newFakeRenderer(pages int) *fakeRenderer {
	return &fakeRenderer{
		opens:    make(map[string]int),
		failOnce: make(map[string]bool),
		pages:    pages,
	}
}

func (r *fakeRenderer) Open(path string) (pdfrenderer.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.opens[path]++
	if r.failOnce[path] {
		delete(r.failOnce, path)
		return nil, pdfrenderer.ErrPasswordRequired
	}
	doc := &fakeDocument{renderer: r, path: path, pages: r.pages}
	r.docs = append(r.docs, doc)
	return doc, nil
}

func (r *fakeRenderer) Close() error { return nil }

func (r *fakeRenderer) openCount(path string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.opens[path]
}

type fakeDocument struct {
	renderer   *fakeRenderer
	path       string
	pages      int
	active     atomic.Int32
	overlap    atomic.Bool
	closed     atomic.Bool
	lastWidth  atomic.Int32
	closedBusy atomic.Bool
}

func (d *fakeDocument) enter() {
	if d.active.Add(1) > 1 {
		d.overlap.Store(true)
	}
}

func (d *fakeDocument) leave() { d.active.Add(-1) }

func (d *fakeDocument) PageCount() int {
	d.enter()
	defer d.leave()
	return d.pages
}

func (d *fakeDocument) PageSize(index int) (float64, float64, error) {
	return 612, 792, nil
}

func (d *fakeDocument) RenderPage(index int, widthPx int) (image.Image, error) {
	d.enter()
	defer d.leave()
	if d.closed.Load() {
		return nil, errors.New("render on closed document")
	}
	if d.renderer.rendering != nil {
		d.renderer.rendering <- struct{}{}
	}
	if d.renderer.block != nil {
		<-d.renderer.block
	}
	time.Sleep(time.Millisecond)
	d.lastWidth.Store(int32(widthPx))
	w, h := pdfrenderer.TargetSize(612, 792, widthPx)
	return image.NewRGBA(image.Rect(0, 0, w, h)), nil
}

func (d *fakeDocument) Close() error {
	if d.active.Load() > 0 {
		d.closedBusy.Store(true)
	}
	d.closed.Store(true)
	return nil
}

func TestRenderPageOpensOncePerDocument(t *testing.T) {
	r := newFakeRenderer(5)
	cache := New(r)
	defer cache.CloseAll()

	uri := pdf.FileURI("/library/report.pdf")
	var wg sync.WaitGroup
	errs := make(chan error, 40)
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			img, err := cache.RenderPage(context.Background(), uri, i%5, 306)
			if err != nil {
				errs <- err
				return
			}
			if img.Bounds().Dx() != 306 || img.Bounds().Dy() != 396 {
				errs <- fmt.Errorf("unexpected size %v", img.Bounds())
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("Render failed: %v", err)
	}

	if got := r.openCount("/library/report.pdf"); got != 1 {
		t.Errorf("Expected 1 open, got %d", got)
	}
	if cache.Len() != 1 {
		t.Errorf("Expected 1 cached document, got %d", cache.Len())
	}
	for _, doc := range r.docs {
		if doc.overlap.Load() {
			t.Error("Document was used concurrently")
		}
	}
}

func TestRenderPageDifferentDocuments(t *testing.T) {
	r := newFakeRenderer(2)
	cache := New(r)
	defer cache.CloseAll()

	for _, name := range []string{"a.pdf", "b.pdf", "c.pdf"} {
		if _, err := cache.RenderPage(context.Background(), pdf.FileURI("/library/"+name), 1, 100); err != nil {
			t.Fatalf("Failed to render %s: %v", name, err)
		}
	}
	if cache.Len() != 3 {
		t.Errorf("Expected 3 cached documents, got %d", cache.Len())
	}
}

func TestRenderPageOutOfRange(t *testing.T) {
	r := newFakeRenderer(2)
	cache := New(r)
	defer cache.CloseAll()
	uri := pdf.FileURI("/library/short.pdf")

	for _, index := range []int{-1, 2, 100} {
		if _, err := cache.RenderPage(context.Background(), uri, index, 100); !errors.Is(err, ErrPageOutOfRange) {
			t.Errorf("Expected ErrPageOutOfRange for page %d, got %v", index, err)
		}
	}
	if cache.Len() != 1 {
		t.Errorf("Expected the document to stay cached, got %d entries", cache.Len())
	}
}

func TestRenderPageClampsWidth(t *testing.T) {
	r := newFakeRenderer(1)
	cache := New(r)
	defer cache.CloseAll()

	img, err := cache.RenderPage(context.Background(), pdf.FileURI("/library/tiny.pdf"), 0, 0)
	if err != nil {
		t.Fatalf("Failed to render: %v", err)
	}
	if r.docs[0].lastWidth.Load() != 1 {
		t.Errorf("Expected width 1 passed to renderer, got %d", r.docs[0].lastWidth.Load())
	}
	if img.Bounds().Dy() < 1 {
		t.Errorf("Expected at least one row, got %v", img.Bounds())
	}
}

func TestFailedOpenLeavesNoEntry(t *testing.T) {
	r := newFakeRenderer(3)
	r.failOnce["/library/locked.pdf"] = true
	cache := New(r)
	defer cache.CloseAll()
	uri := pdf.FileURI("/library/locked.pdf")

	if _, err := cache.RenderPage(context.Background(), uri, 0, 100); !errors.Is(err, pdfrenderer.ErrPasswordRequired) {
		t.Fatalf("Expected ErrPasswordRequired, got %v", err)
	}
	if cache.Len() != 0 {
		t.Errorf("Expected no entry after failed open, got %d", cache.Len())
	}

	if _, err := cache.RenderPage(context.Background(), uri, 0, 100); err != nil {
		t.Fatalf("Expected retry to succeed, got %v", err)
	}
	if got := r.openCount("/library/locked.pdf"); got != 2 {
		t.Errorf("Expected 2 opens, got %d", got)
	}
}

func TestUnsupportedReference(t *testing.T) {
	cache := New(newFakeRenderer(1))
	if _, err := cache.RenderPage(context.Background(), "content://media/external/1", 0, 100); !errors.Is(err, pdf.ErrUnsupportedURI) {
		t.Errorf("Expected ErrUnsupportedURI, got %v", err)
	}
	if cache.Len() != 0 {
		t.Errorf("Expected no entry, got %d", cache.Len())
	}
}

func TestCloseAllReleasesEverything(t *testing.T) {
	r := newFakeRenderer(2)
	cache := New(r)
	uris := []string{pdf.FileURI("/library/one.pdf"), pdf.FileURI("/library/two.pdf")}
	for _, uri := range uris {
		if _, err := cache.PageCount(context.Background(), uri); err != nil {
			t.Fatalf("Failed to open %s: %v", uri, err)
		}
	}

	cache.CloseAll()
	if cache.Len() != 0 {
		t.Errorf("Expected empty cache, got %d", cache.Len())
	}
	for _, doc := range r.docs {
		if !doc.closed.Load() {
			t.Errorf("Expected %s to be closed", doc.path)
		}
	}

	// still usable
	if _, err := cache.RenderPage(context.Background(), uris[0], 0, 50); err != nil {
		t.Fatalf("Expected render after CloseAll to succeed, got %v", err)
	}
	if got := r.openCount("/library/one.pdf"); got != 2 {
		t.Errorf("Expected reopen after CloseAll, got %d opens", got)
	}
	cache.CloseAll()
}

func TestCloseAllWaitsForInFlightRender(t *testing.T) {
	r := newFakeRenderer(1)
	r.block = make(chan struct{})
	r.rendering = make(chan struct{}, 1)
	cache := New(r)
	uri := pdf.FileURI("/library/slow.pdf")

	renderDone := make(chan error, 1)
	go func() {
		_, err := cache.RenderPage(context.Background(), uri, 0, 100)
		renderDone <- err
	}()
	<-r.rendering

	closed := make(chan struct{})
	go func() {
		cache.CloseAll()
		close(closed)
	}()

	select {
	case <-closed:
		t.Fatal("CloseAll returned while a render was in progress")
	case <-time.After(20 * time.Millisecond):
	}

	close(r.block)
	if err := <-renderDone; err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	<-closed

	if r.docs[0].closedBusy.Load() {
		t.Error("Document was closed during a render")
	}
	if !r.docs[0].closed.Load() {
		t.Error("Expected document to be closed")
	}
}

func TestContextCancelledWhileWaiting(t *testing.T) {
	r := newFakeRenderer(1)
	r.block = make(chan struct{})
	r.rendering = make(chan struct{}, 1)
	cache := New(r)
	defer cache.CloseAll()
	uri := pdf.FileURI("/library/busy.pdf")

	go cache.RenderPage(context.Background(), uri, 0, 100)
	<-r.rendering

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := cache.RenderPage(ctx, uri, 0, 100); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected deadline exceeded, got %v", err)
	}
	close(r.block)

	cancelled, stop := context.WithCancel(context.Background())
	stop()
	if _, err := cache.PageCount(cancelled, uri); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context canceled, got %v", err)
	}
}

func TestEvict(t *testing.T) {
	r := newFakeRenderer(1)
	cache := New(r)
	defer cache.CloseAll()
	uri := pdf.FileURI("/library/renamed.pdf")

	if _, err := cache.PageCount(context.Background(), uri); err != nil {
		t.Fatalf("Failed to open: %v", err)
	}
	cache.Evict(uri)
	cache.Evict(pdf.FileURI("/library/never-opened.pdf"))

	if cache.Len() != 0 {
		t.Errorf("Expected empty cache after evict, got %d", cache.Len())
	}
	if !r.docs[0].closed.Load() {
		t.Error("Expected evicted document to be closed")
	}
}

func TestMaxDocumentsEvictsLeastRecentlyUsed(t *testing.T) {
	r := newFakeRenderer(1)
	cache := New(r, WithMaxDocuments(2))
	defer cache.CloseAll()
	ctx := context.Background()

	first := pdf.FileURI("/library/first.pdf")
	second := pdf.FileURI("/library/second.pdf")
	third := pdf.FileURI("/library/third.pdf")

	for _, uri := range []string{first, second, first, third} {
		if _, err := cache.RenderPage(ctx, uri, 0, 10); err != nil {
			t.Fatalf("Failed to render %s: %v", uri, err)
		}
	}

	if cache.Len() != 2 {
		t.Fatalf("Expected 2 cached documents, got %d", cache.Len())
	}
	for _, doc := range r.docs {
		wantClosed := doc.path == "/library/second.pdf"
		if doc.closed.Load() != wantClosed {
			t.Errorf("%s: expected closed=%v, got %v", doc.path, wantClosed, doc.closed.Load())
		}
	}
}
