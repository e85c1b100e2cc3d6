package workspace

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/drummonds/pdfmanager/config"
	"github.com/drummonds/pdfmanager/database"
	"github.com/drummonds/pdfmanager/internal/pdftest"
	"github.com/drummonds/pdfmanager/internal/rendertest"
	"github.com/drummonds/pdfmanager/pdf"
	"github.com/drummonds/pdfmanager/pdfops"
)

type testWorkspace struct {
	*Workspace
	root   string
	output string
	db     database.Repository
	files  map[string]pdf.PdfFile
}

// setupWorkspace indexes two.pdf (2 pages), three.pdf (3 pages) and
// locked.pdf (password protected)
func setupWorkspace(t *testing.T) testWorkspace {
	t.Helper()
	root := t.TempDir()
	output := filepath.Join(t.TempDir(), "output")
	pdftest.WritePDF(t, root, "two.pdf", 2)
	pdftest.WritePDF(t, root, "three.pdf", 3)
	pdftest.WriteLockedPDF(t, root, "locked.pdf", 1, "secret")

	db, err := database.NewRepository(config.ServerConfig{
		DatabaseType:   "sqlite",
		DatabaseDbname: filepath.Join(t.TempDir(), "workspace.sqlite"),
	})
	if err != nil {
		t.Fatalf("Failed to create repository: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	lib := pdf.NewLibrary(pdf.LibraryConfig{
		Roots:    []string{root},
		Workers:  2,
		Renderer: rendertest.New(),
		DB:       db,
	})
	w := New(Config{Library: lib, DB: db, OutputDir: output})
	t.Cleanup(w.Close)

	if err := w.List.LoadAll(context.Background()); err != nil {
		t.Fatalf("Failed to load PDFs: %v", err)
	}
	files := make(map[string]pdf.PdfFile)
	for _, f := range w.List.Files() {
		files[f.Name] = f
	}
	if len(files) != 3 {
		t.Fatalf("Expected 3 indexed PDFs, got %d", len(files))
	}
	return testWorkspace{Workspace: w, root: root, output: output, db: db, files: files}
}

func toastTexts(w *Workspace) []string {
	var texts []string
	for _, m := range w.Toasts.Drain() {
		texts = append(texts, m.Text)
	}
	return texts
}

func TestPdfListSelection(t *testing.T) {
	w := setupWorkspace(t)
	two, three := w.files["two.pdf"], w.files["three.pdf"]

	t.Run("click outside selection mode opens preview", func(t *testing.T) {
		if err := w.List.OnItemClick(two.ID); err != nil {
			t.Fatalf("Failed to click item: %v", err)
		}
		ev, ok := w.List.PendingEvent().(OpenPreview)
		if !ok || ev.Pdf.ID != two.ID {
			t.Fatalf("Expected OpenPreview for two.pdf, got %#v", w.List.PendingEvent())
		}
		w.List.ClearPendingEvent()
		if w.List.IsSelected(two.ID) {
			t.Error("Expected click outside selection mode not to select")
		}
	})

	t.Run("long press then click toggles", func(t *testing.T) {
		if err := w.List.OnItemLongPress(two.ID); err != nil {
			t.Fatalf("Failed to long press: %v", err)
		}
		if !w.List.IsSelectionMode() || !w.List.IsSelected(two.ID) {
			t.Fatal("Expected selection mode with two.pdf selected")
		}
		w.List.OnItemClick(three.ID)
		w.List.OnItemClick(two.ID)
		if w.List.IsSelected(two.ID) || !w.List.IsSelected(three.ID) {
			t.Errorf("Expected only three.pdf selected, got %v", w.List.State().SelectedIDs)
		}
		if w.List.PendingEvent() != nil {
			t.Error("Expected no event from clicks in selection mode")
		}
	})

	t.Run("toggle select all", func(t *testing.T) {
		w.List.ToggleSelectAll()
		if !w.List.IsAllSelected() || w.List.SelectionCount() != 3 {
			t.Fatalf("Expected all 3 selected, got %d", w.List.SelectionCount())
		}
		w.List.ToggleSelectAll()
		if w.List.SelectionCount() != 0 {
			t.Errorf("Expected second toggle to clear, got %d", w.List.SelectionCount())
		}
		if !w.List.IsSelectionMode() {
			t.Error("Expected to stay in selection mode")
		}
	})

	t.Run("exit selection mode", func(t *testing.T) {
		w.List.OnItemClick(two.ID)
		w.List.ExitSelectionMode()
		if w.List.IsSelectionMode() || w.List.SelectionCount() != 0 {
			t.Error("Expected selection cleared and mode off")
		}
	})

	t.Run("unknown id", func(t *testing.T) {
		if err := w.List.OnItemLongPress("nope"); !errors.Is(err, ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})

	t.Run("share links", func(t *testing.T) {
		w.List.OnItemLongPress(three.ID)
		links := w.List.ShareSelected("http://localhost:8000/")
		want := "http://localhost:8000/document/view/" + three.ID
		if len(links) != 1 || links[0] != want {
			t.Errorf("Expected [%s], got %v", want, links)
		}
		w.List.ExitSelectionMode()
	})
}

func TestIsAllSelectedEmptyList(t *testing.T) {
	list := NewPdfList(nil)
	if list.IsAllSelected() {
		t.Error("Expected an empty list never to be all selected")
	}
	list.ToggleSelectAll()
	if list.SelectionCount() != 0 {
		t.Errorf("Expected nothing selected, got %d", list.SelectionCount())
	}
}

func TestMergeSelectedEmptyIsNoop(t *testing.T) {
	w := setupWorkspace(t)
	w.List.MergeSelected()
	if w.List.PendingEvent() != nil {
		t.Errorf("Expected no event, got %#v", w.List.PendingEvent())
	}
}

type failingLibrary struct{ err error }

func (f failingLibrary) LoadAll(context.Context) ([]pdf.PdfFile, error) { return nil, f.err }
func (f failingLibrary) List() ([]pdf.PdfFile, error) { return nil, f.err }
func (f failingLibrary) LoadMetadata(context.Context, string) (pdf.PdfFile, error) {
	return pdf.PdfFile{}, f.err
}
func (f failingLibrary) Delete(context.Context, string) error { return f.err }

func TestLoadErrorText(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"permission", fmt.Errorf("walk: %w", fs.ErrPermission), "No permission to access storage"},
		{"message", errors.New("disk on fire"), "disk on fire"},
		{"blank message", errors.New(" "), "Failed to load PDFs"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list := NewPdfList(failingLibrary{err: tt.err})
			if err := list.LoadAll(context.Background()); err == nil {
				t.Fatal("Expected an error")
			}
			if got := list.ErrorText(); got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
			if list.IsLoading() {
				t.Error("Expected loading to be reset")
			}
		})
	}
}

func TestHandlePendingEvent(t *testing.T) {
	w := setupWorkspace(t)
	two, three := w.files["two.pdf"], w.files["three.pdf"]

	if w.HandlePendingEvent() {
		t.Fatal("Expected no pending event")
	}

	t.Run("merge selected", func(t *testing.T) {
		w.List.OnItemLongPress(two.ID)
		w.List.OnItemClick(three.ID)
		w.List.OpenOptions(two.ID)
		w.List.MergeSelected()
		if !w.HandlePendingEvent() {
			t.Fatal("Expected an event to be handled")
		}
		if w.ActiveTab() != TabMerge {
			t.Errorf("Expected merge tab, got %s", w.ActiveTab())
		}
		if w.Merge.Total() != 2 {
			t.Errorf("Expected 2 PDFs in merge set, got %d", w.Merge.Total())
		}
		if w.List.IsSelectionMode() {
			t.Error("Expected selection mode to end")
		}
		if visible, _ := w.List.Options(); visible {
			t.Error("Expected options panel to close")
		}
		if w.List.PendingEvent() != nil {
			t.Error("Expected event to be cleared")
		}
	})

	t.Run("split option keeps selection", func(t *testing.T) {
		w.List.OnItemLongPress(two.ID)
		if err := w.List.OnFileOptionSelected(OptionSplit, three.ID); err != nil {
			t.Fatalf("Failed to select option: %v", err)
		}
		w.HandlePendingEvent()
		if w.ActiveTab() != TabSplit {
			t.Errorf("Expected split tab, got %s", w.ActiveTab())
		}
		if selected, ok := w.Split.Selected(); !ok || selected.ID != three.ID {
			t.Errorf("Expected three.pdf selected for split, got %+v", selected)
		}
		if !w.List.IsSelected(two.ID) {
			t.Error("Expected list selection to survive a split event")
		}
		w.List.ExitSelectionMode()
	})

	t.Run("split option on a locked PDF", func(t *testing.T) {
		w.SetTab(TabPDFs)
		w.Toasts.Drain()
		if err := w.List.OnFileOptionSelected(OptionSplit, w.files["locked.pdf"].ID); err != nil {
			t.Fatalf("Failed to select option: %v", err)
		}
		w.HandlePendingEvent()
		if w.ActiveTab() != TabSplit {
			t.Errorf("Expected split tab, got %s", w.ActiveTab())
		}
		if selected, _ := w.Split.Selected(); selected.ID != three.ID {
			t.Errorf("Expected the locked PDF to be refused, got %+v", selected)
		}
		if len(w.Toasts.Drain()) != 1 {
			t.Error("Expected a toast for the locked PDF")
		}
	})

	t.Run("preview", func(t *testing.T) {
		w.List.OnItemClick(three.ID)
		w.HandlePendingEvent()
		req, ok := w.Preview()
		if !ok || req.Title() != "three.pdf" || len(req.Pages()) != 3 {
			t.Errorf("Expected single preview of three.pdf, got %+v", req)
		}
		w.ClosePreview()
	})

	t.Run("details", func(t *testing.T) {
		w.List.OnFileOptionSelected(OptionDetails, two.ID)
		w.HandlePendingEvent()
		if p, ok := w.Details(); !ok || p.ID != two.ID {
			t.Errorf("Expected details for two.pdf, got %+v", p)
		}
	})

	t.Run("non navigating option", func(t *testing.T) {
		if err := w.List.OnFileOptionSelected(OptionCompress, two.ID); err != nil {
			t.Fatalf("Failed to select option: %v", err)
		}
		if w.HandlePendingEvent() {
			t.Error("Expected compress not to raise an event")
		}
		if err := w.List.OnFileOptionSelected("EXPLODE", two.ID); !errors.Is(err, ErrUnknownOption) {
			t.Errorf("Expected ErrUnknownOption, got %v", err)
		}
	})
}

func TestMergeSetAdd(t *testing.T) {
	w := setupWorkspace(t)
	two, three, locked := w.files["two.pdf"], w.files["three.pdf"], w.files["locked.pdf"]

	if w.Merge.Add(locked) {
		t.Error("Expected a locked PDF to be rejected")
	}
	if w.Merge.Add(two, locked) {
		t.Error("Expected a batch with a locked PDF to be rejected")
	}
	texts := toastTexts(w.Workspace)
	want := []string{
		"This PDF is password-protected and can't be selected",
		"Some PDFs are password-protected and can't be selected",
	}
	if strings.Join(texts, "|") != strings.Join(want, "|") {
		t.Errorf("Expected toasts %q, got %q", want, texts)
	}
	if w.Merge.IsActive() {
		t.Error("Expected a rejected batch to add nothing")
	}

	w.Merge.Add(two, three)
	w.Merge.Add(three)
	if w.Merge.Total() != 2 {
		t.Errorf("Expected duplicates to be skipped, got %d", w.Merge.Total())
	}
	if w.Merge.TotalPages() != 5 {
		t.Errorf("Expected 5 pages, got %d", w.Merge.TotalPages())
	}

	if err := w.Merge.Move(0, 1); err != nil {
		t.Fatalf("Failed to move: %v", err)
	}
	if got := w.Merge.Pdfs(); got[0].ID != three.ID {
		t.Errorf("Expected three.pdf first after move, got %s", got[0].Name)
	}
	if err := w.Merge.Move(0, 2); !errors.Is(err, ErrIndexOutOfRange) {
		t.Errorf("Expected ErrIndexOutOfRange, got %v", err)
	}
	if err := w.Merge.Remove(two.ID); err != nil {
		t.Fatalf("Failed to remove: %v", err)
	}
	w.Merge.Clear()
	if w.Merge.IsActive() {
		t.Error("Expected set to be empty after clear")
	}
}

func TestMove(t *testing.T) {
	tests := []struct {
		from, to int
		want     string
	}{
		{0, 0, "abcd"},
		{0, 3, "bcda"},
		{3, 0, "dabc"},
		{1, 2, "acbd"},
		{2, 1, "acbd"},
	}
	for _, tt := range tests {
		items := []byte("abcd")
		if err := move(items, tt.from, tt.to); err != nil {
			t.Fatalf("Failed to move %d to %d: %v", tt.from, tt.to, err)
		}
		if string(items) != tt.want {
			t.Errorf("move(%d, %d): expected %s, got %s", tt.from, tt.to, tt.want, items)
		}
	}
	if err := move([]byte("ab"), -1, 0); !errors.Is(err, ErrIndexOutOfRange) {
		t.Errorf("Expected ErrIndexOutOfRange, got %v", err)
	}
}

func TestMergeSetMerge(t *testing.T) {
	w := setupWorkspace(t)
	ctx := context.Background()

	w.Merge.Add(w.files["two.pdf"])
	if _, err := w.Merge.Merge(ctx); !errors.Is(err, ErrNoSelection) {
		t.Errorf("Expected ErrNoSelection for a single PDF, got %v", err)
	}

	w.Merge.Add(w.files["three.pdf"])
	merged, err := w.Merge.Merge(ctx)
	if err != nil {
		t.Fatalf("Failed to merge: %v", err)
	}
	if merged.PagesCount != 5 {
		t.Errorf("Expected 5 pages, got %d", merged.PagesCount)
	}
	path, _ := pdf.PathFromURI(merged.URI)
	if filepath.Dir(path) != w.output {
		t.Errorf("Expected output in %s, got %s", w.output, path)
	}
	if w.Merge.IsActive() {
		t.Error("Expected merge set to clear after a merge")
	}
	texts := toastTexts(w.Workspace)
	if len(texts) != 1 || !strings.HasPrefix(texts[0], "Merged 2 PDFs into ") {
		t.Errorf("Expected a merged toast, got %q", texts)
	}
}

func TestSplitSelection(t *testing.T) {
	w := setupWorkspace(t)
	ctx := context.Background()

	if _, err := w.Split.Split(ctx); !errors.Is(err, ErrNoSelection) {
		t.Errorf("Expected ErrNoSelection, got %v", err)
	}
	if err := w.Split.Select(w.files["locked.pdf"]); !errors.Is(err, ErrLocked) {
		t.Errorf("Expected ErrLocked, got %v", err)
	}
	if err := w.Split.SetMethod(7); !errors.Is(err, pdfops.ErrInvalidMethod) {
		t.Errorf("Expected ErrInvalidMethod, got %v", err)
	}

	w.Split.Select(w.files["three.pdf"])
	w.Split.SetMethod(pdfops.SplitByRanges)
	w.Split.SetRangesText("1-4")
	if state := w.Split.State(); state.PlanError == "" {
		t.Error("Expected a plan error for a range past the last page")
	}

	w.Split.SetMethod(pdfops.SplitEveryNPages)
	w.Split.SetPagesPerFileText("2")
	files, err := w.Split.Split(ctx)
	if err != nil {
		t.Fatalf("Failed to split: %v", err)
	}
	if len(files) != 2 || files[0].PagesCount != 2 || files[1].PagesCount != 1 {
		t.Errorf("Expected files of 2 and 1 pages, got %+v", files)
	}

	req, err := w.Split.Preview()
	if err != nil {
		t.Fatalf("Failed to build preview: %v", err)
	}
	pages := req.Pages()
	if len(pages) != 3 || pages[2].Group != 2 {
		t.Errorf("Expected 3 pages with the last in group 2, got %+v", pages)
	}
	if req.Title() != "Preview" {
		t.Errorf("Expected title Preview, got %q", req.Title())
	}
	w.Split.SetPagesPerFileText("9223372036854775807")
	req, err = w.Split.Preview()
	if err != nil {
		t.Fatalf("Failed to build preview for a huge chunk size: %v", err)
	}
	if pages := req.Pages(); len(pages) != 3 || pages[0].Group != 1 || pages[2].Group != 1 {
		t.Errorf("Expected all 3 pages in one file, got %+v", pages)
	}
}

func TestImageSet(t *testing.T) {
	w := setupWorkspace(t)
	dir := t.TempDir()
	wide := pdftest.WritePNG(t, dir, "wide.png", 200, 100)
	tall := pdftest.WritePNG(t, dir, "tall.png", 100, 300)

	items, err := w.Images.Add(wide, tall)
	if err != nil {
		t.Fatalf("Failed to add images: %v", err)
	}
	if items[0].WidthPx != 200 || items[0].HeightPx != 100 || items[1].HeightPx != 300 {
		t.Errorf("Unexpected dimensions: %+v", items)
	}

	bogus := filepath.Join(dir, "bogus.png")
	if err := os.WriteFile(bogus, []byte("not an image"), 0o644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}
	if _, err := w.Images.Add(bogus); err == nil {
		t.Error("Expected an unreadable image to fail")
	}
	if w.Images.SelectedCount() != 2 {
		t.Errorf("Expected 2 images, got %d", w.Images.SelectedCount())
	}

	w.Images.Move(1, 0)
	if got := w.Images.Items(); got[0].Name != "tall.png" {
		t.Errorf("Expected tall.png first, got %s", got[0].Name)
	}

	file, err := w.Images.Convert(context.Background())
	if err != nil {
		t.Fatalf("Failed to convert: %v", err)
	}
	if file.PagesCount != 2 {
		t.Errorf("Expected 2 pages, got %d", file.PagesCount)
	}
	if w.Images.IsActive() {
		t.Error("Expected image set to clear after conversion")
	}
	if _, err := w.Images.Convert(context.Background()); !errors.Is(err, ErrNoSelection) {
		t.Errorf("Expected ErrNoSelection, got %v", err)
	}
}

func TestPreviewPages(t *testing.T) {
	a := pdf.PdfFile{ID: "A", URI: "file:///a.pdf", Name: "a.pdf", PagesCount: 2}
	b := pdf.PdfFile{ID: "B", URI: "file:///b.pdf", Name: "b.pdf", PagesCount: 1}
	locked := pdf.PdfFile{ID: "L", URI: "file:///l.pdf", Name: "l.pdf", IsLocked: true}

	pages := MergePreview([]pdf.PdfFile{a, locked, b}).Pages()
	var keys []string
	for _, p := range pages {
		keys = append(keys, p.Key)
	}
	want := "file:///a.pdf#0 file:///a.pdf#1 file:///b.pdf#0"
	if strings.Join(keys, " ") != want {
		t.Errorf("Expected keys %q, got %q", want, keys)
	}

	if got := SinglePreview(locked).EmptyText(); got != "No pages to preview" {
		t.Errorf("Expected empty text for a locked PDF, got %q", got)
	}
	if got := MergePreview(nil).EmptyText(); got != "" {
		t.Errorf("Expected no empty text without documents, got %q", got)
	}
	if got := SinglePreview(a).Title(); got != "a.pdf" {
		t.Errorf("Expected title a.pdf, got %q", got)
	}
	if got := MergePreview([]pdf.PdfFile{a}).Title(); got != "Preview" {
		t.Errorf("Expected title Preview, got %q", got)
	}

	overlapping := SplitPreview(a, pdfops.SplitByRanges, []pdfops.PageRange{{Start: 1, End: 2}, {Start: 2, End: 2}})
	outOfBounds := SplitPreview(a, pdfops.SplitByRanges, []pdfops.PageRange{{Start: math.MinInt, End: -2}, {Start: -1, End: math.MaxInt}})
	if got := len(outOfBounds.Pages()); got != 2 {
		t.Errorf("Expected only the 2 real pages, got %d", got)
	}

	seen := make(map[string]bool)
	for _, p := range overlapping.Pages() {
		if seen[p.Key] {
			t.Errorf("Duplicate key %s", p.Key)
		}
		seen[p.Key] = true
	}
}

func TestSettingsPersist(t *testing.T) {
	w := setupWorkspace(t)
	if got := w.Settings.Get(); got != database.DefaultSettings() {
		t.Errorf("Expected defaults, got %+v", got)
	}
	if err := w.Settings.SetDarkMode(false); err != nil {
		t.Fatalf("Failed to save settings: %v", err)
	}
	w.Settings.SetNotifications(false)

	reloaded := NewSettings(w.db).Get()
	if reloaded.DarkMode || reloaded.Notifications {
		t.Errorf("Expected both toggles off after reload, got %+v", reloaded)
	}
}

func TestDeleteSelected(t *testing.T) {
	w := setupWorkspace(t)
	two := w.files["two.pdf"]
	w.Merge.Add(two)

	w.List.OnItemLongPress(two.ID)
	deleted, err := w.List.DeleteSelected(context.Background())
	if err != nil {
		t.Fatalf("Failed to delete: %v", err)
	}
	w.Forget(two.ID)
	if deleted != 1 || len(w.List.Files()) != 2 {
		t.Errorf("Expected 1 deleted and 2 left, got %d and %d", deleted, len(w.List.Files()))
	}
	if w.List.IsSelectionMode() {
		t.Error("Expected selection mode to end")
	}
	if w.Merge.IsActive() {
		t.Error("Expected deleted PDF to leave the merge set")
	}
	if _, err := os.Stat(filepath.Join(w.root, "two.pdf")); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Expected file to be removed, got %v", err)
	}
	if texts := toastTexts(w.Workspace); len(texts) != 1 || texts[0] != "Deleted 1 PDF" {
		t.Errorf("Expected delete toast, got %q", texts)
	}
}

func TestParseTab(t *testing.T) {
	if tab, err := ParseTab("Merge"); err != nil || tab != TabMerge {
		t.Errorf("Expected merge tab, got %q, %v", tab, err)
	}
	if _, err := ParseTab("wordcloud"); !errors.Is(err, ErrUnknownTab) {
		t.Errorf("Expected ErrUnknownTab, got %v", err)
	}
	if TabPDFs.Title() != "PDFs" || TabSettings.Title() != "Settings" {
		t.Error("Unexpected tab titles")
	}
}
