// Package workspace holds the per-tab UI state of the PDF manager and routes
// navigation events between tabs. Every container is safe for concurrent use.
package workspace

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/drummonds/pdfmanager/database"
	"github.com/drummonds/pdfmanager/pdf"
	"github.com/drummonds/pdfmanager/toast"
)

// Logger is injected from main
var Logger = slog.Default()

// Tab is one of the bottom navigation destinations
type Tab string

const (
	TabPDFs     Tab = "pdfs"
	TabMerge    Tab = "merge"
	TabSplit    Tab = "split"
	TabImages   Tab = "images"
	TabSettings Tab = "settings"
)

// Tabs lists the navigation bar in display order
var Tabs = []Tab{TabPDFs, TabMerge, TabSplit, TabImages, TabSettings}

// ParseTab accepts a tab route in any case
func ParseTab(s string) (Tab, error) {
	for _, t := range Tabs {
		if strings.EqualFold(string(t), strings.TrimSpace(s)) {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownTab, s)
}

// Title is the label shown in the tab bar
func (t Tab) Title() string {
	if t == TabPDFs {
		return "PDFs"
	}
	s := string(t)
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// Config wires a Workspace
type Config struct {
	Library   Library
	DB        database.Repository
	OutputDir string
	// ToastLimit bounds undrained toasts; zero keeps them all
	ToastLimit int
}

// Workspace owns the state of every tab plus the preview and details overlays
type Workspace struct {
	List     *PdfList
	Merge    *MergeSet
	Split    *SplitSelection
	Images   *ImageSet
	Settings *Settings
	Toasts   *toast.Queue

	unbind func()

	mu        sync.Mutex
	activeTab Tab
	preview   *PreviewRequest
	details   *pdf.PdfFile
}

// New creates a workspace with every container bound to a shared toast queue
func New(cfg Config) *Workspace {
	w := &Workspace{
		List:      NewPdfList(cfg.Library),
		Merge:     NewMergeSet(cfg.Library, cfg.OutputDir),
		Split:     NewSplitSelection(cfg.Library, cfg.OutputDir),
		Images:    NewImageSet(cfg.Library, cfg.OutputDir),
		Settings:  NewSettings(cfg.DB),
		Toasts:    toast.NewQueue(cfg.ToastLimit),
		activeTab: TabPDFs,
	}
	w.unbind = toast.Bind(w.Toasts.Toaster(), w.List, w.Merge, w.Split, w.Images)
	return w
}

// Close disconnects the containers from the toast queue
func (w *Workspace) Close() {
	if w.unbind != nil {
		w.unbind()
	}
}

// HandlePendingEvent consumes the PDFs tab's pending event, if any, and
// reports whether there was one.
func (w *Workspace) HandlePendingEvent() bool {
	event := w.List.PendingEvent()
	if event == nil {
		return false
	}

	switch ev := event.(type) {
	case OpenMerge:
		w.Merge.Add(ev.Pdfs...)
		w.SetTab(TabMerge)
		w.List.ExitSelectionMode()
	case OpenSplit:
		// a locked PDF is refused with a toast; the Split tab still opens
		_ = w.Split.Select(ev.Pdf)
		w.SetTab(TabSplit)
	case OpenPreview:
		w.OpenPreview(SinglePreview(ev.Pdf))
	case OpenDetails:
		w.OpenDetails(ev.Pdf)
	default:
		Logger.Warn("Dropping unknown workspace event", "event", fmt.Sprintf("%T", event))
	}
	w.List.CloseOptions()
	w.List.ClearPendingEvent()
	return true
}

// SetTab switches the active tab
func (w *Workspace) SetTab(tab Tab) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.activeTab = tab
}

func (w *Workspace) ActiveTab() Tab {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.activeTab
}

// OpenPreview shows the preview overlay
func (w *Workspace) OpenPreview(req PreviewRequest) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.preview = &req
}

func (w *Workspace) ClosePreview() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.preview = nil
}

// Preview returns the open preview, if any
func (w *Workspace) Preview() (PreviewRequest, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.preview == nil {
		return PreviewRequest{}, false
	}
	return *w.preview, true
}

// OpenDetails shows the details overlay for a document
func (w *Workspace) OpenDetails(p pdf.PdfFile) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.details = &p
}

func (w *Workspace) CloseDetails() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.details = nil
}

// Details returns the document in the details overlay, if any
func (w *Workspace) Details() (pdf.PdfFile, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.details == nil {
		return pdf.PdfFile{}, false
	}
	return *w.details, true
}

// Forget drops a document that was deleted or renamed from every container
// that may still refer to it
func (w *Workspace) Forget(id string) {
	w.Merge.Remove(id)
	if selected, ok := w.Split.Selected(); ok && selected.ID == id {
		w.Split.ClearSelection()
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.details != nil && w.details.ID == id {
		w.details = nil
	}
	if w.preview != nil {
		for _, p := range w.preview.Pdfs {
			if p.ID == id {
				w.preview = nil
				break
			}
		}
	}
}

// State is a snapshot of the whole workspace
type State struct {
	ActiveTab Tab               `json:"activeTab"`
	List      ListState         `json:"list"`
	Merge     MergeState        `json:"merge"`
	Split     SplitState        `json:"split"`
	Images    ImagesState       `json:"images"`
	Settings  database.Settings `json:"settings"`
	Preview   *PreviewState     `json:"preview,omitempty"`
	Details   *pdf.Summary      `json:"details,omitempty"`
}

func (w *Workspace) State() State {
	state := State{
		ActiveTab: w.ActiveTab(),
		List:      w.List.State(),
		Merge:     w.Merge.State(),
		Split:     w.Split.State(),
		Images:    w.Images.State(),
		Settings:  w.Settings.Get(),
	}
	if req, ok := w.Preview(); ok {
		preview := req.State()
		state.Preview = &preview
	}
	if p, ok := w.Details(); ok {
		summary := p.Summary()
		state.Details = &summary
	}
	return state
}
