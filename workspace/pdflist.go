package workspace

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"sync"

	"github.com/drummonds/pdfmanager/pdf"
	"github.com/drummonds/pdfmanager/toast"
)

// Library is the part of pdf.Library the workspace drives
type Library interface {
	LoadAll(ctx context.Context) ([]pdf.PdfFile, error)
	List() ([]pdf.PdfFile, error)
	LoadMetadata(ctx context.Context, uri string) (pdf.PdfFile, error)
	Delete(ctx context.Context, id string) error
}

// FileOption is an entry of the per-file options panel
type FileOption string

const (
	OptionRename         FileOption = "RENAME"
	OptionMerge          FileOption = "MERGE"
	OptionSplit          FileOption = "SPLIT"
	OptionCompress       FileOption = "COMPRESS"
	OptionReorderPages   FileOption = "REORDER_PAGES"
	OptionSetPassword    FileOption = "SET_PASSWORD"
	OptionRemovePassword FileOption = "REMOVE_PASSWORD"
	OptionPrint          FileOption = "PRINT"
	OptionShare          FileOption = "SHARE"
	OptionDetails        FileOption = "DETAILS"
	OptionDelete         FileOption = "DELETE"
)

// FileOptionItem is a row of the options panel
type FileOptionItem struct {
	Action FileOption `json:"action"`
	Title  string     `json:"title"`
}

// FileOptions lists the options panel in display order
var FileOptions = []FileOptionItem{
	{OptionRename, "Rename"},
	{OptionMerge, "Merge"},
	{OptionSplit, "Split"},
	{OptionCompress, "Compress PDF"},
	{OptionReorderPages, "Reorder pages"},
	{OptionSetPassword, "Set password"},
	{OptionRemovePassword, "Remove password"},
	{OptionPrint, "Print"},
	{OptionShare, "Share"},
	{OptionDetails, "Details"},
	{OptionDelete, "Delete"},
}

// ParseFileOption accepts the action name in any case
func ParseFileOption(s string) (FileOption, error) {
	for _, item := range FileOptions {
		if strings.EqualFold(string(item.Action), strings.TrimSpace(s)) {
			return item.Action, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownOption, s)
}

const (
	noPermissionText = "No permission to access storage"
	loadFailedText   = "Failed to load PDFs"
)

// PdfList is the state behind the PDFs tab
type PdfList struct {
	toast.Binding

	library Library

	mu             sync.Mutex
	loading        bool
	errorText      string
	files          []pdf.PdfFile
	optionsVisible bool
	optionsPdf     *pdf.PdfFile
	pendingEvent   Event
	selected       map[string]bool
	selectionMode  bool
}

// NewPdfList creates an empty list over library
func NewPdfList(library Library) *PdfList {
	return &PdfList{library: library, selected: make(map[string]bool)}
}

// LoadAll rescans the library. Failures are reported through ErrorText as
// well as the returned error.
func (l *PdfList) LoadAll(ctx context.Context) error {
	l.mu.Lock()
	l.loading = true
	l.errorText = ""
	l.mu.Unlock()

	files, err := l.library.LoadAll(ctx)

	l.mu.Lock()
	defer l.mu.Unlock()
	l.loading = false
	if err != nil {
		l.errorText = loadErrorText(err)
		return err
	}
	l.setFilesLocked(files)
	return nil
}

// Refresh reloads the list from the index without rescanning the library
// folders, for example after an upload or a merge added a document.
func (l *PdfList) Refresh() error {
	files, err := l.library.List()
	if err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.setFilesLocked(files)
	return nil
}

// setFilesLocked replaces the list and drops selections of vanished files
func (l *PdfList) setFilesLocked(files []pdf.PdfFile) {
	l.files = files

	present := make(map[string]bool, len(files))
	for _, f := range files {
		present[f.ID] = true
	}
	for id := range l.selected {
		if !present[id] {
			delete(l.selected, id)
		}
	}
}

func loadErrorText(err error) string {
	if errors.Is(err, fs.ErrPermission) {
		return noPermissionText
	}
	if msg := err.Error(); strings.TrimSpace(msg) != "" {
		return msg
	}
	return loadFailedText
}

// Files returns a copy of the current list
func (l *PdfList) Files() []pdf.PdfFile {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]pdf.PdfFile(nil), l.files...)
}

// IsLoading reports whether a load is in progress
func (l *PdfList) IsLoading() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loading
}

// ErrorText is the message from the last failed load, or empty
func (l *PdfList) ErrorText() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.errorText
}

func (l *PdfList) findLocked(id string) (pdf.PdfFile, error) {
	for _, f := range l.files {
		if f.ID == id {
			return f, nil
		}
	}
	return pdf.PdfFile{}, fmt.Errorf("%w: %s", ErrNotFound, id)
}

// Find looks up a listed file by id
func (l *PdfList) Find(id string) (pdf.PdfFile, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.findLocked(id)
}

// OpenOptions shows the options panel for a file
func (l *PdfList) OpenOptions(id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	file, err := l.findLocked(id)
	if err != nil {
		return err
	}
	l.optionsVisible = true
	l.optionsPdf = &file
	return nil
}

// CloseOptions hides the options panel
func (l *PdfList) CloseOptions() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.optionsVisible = false
	l.optionsPdf = nil
}

// Options reports the panel state and its target
func (l *PdfList) Options() (bool, *pdf.PdfFile) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.optionsPdf == nil {
		return l.optionsVisible, nil
	}
	file := *l.optionsPdf
	return l.optionsVisible, &file
}

// OnFileOptionSelected raises the event for options that navigate. Options
// that act on the file directly return without an event.
func (l *PdfList) OnFileOptionSelected(action FileOption, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	file, err := l.findLocked(id)
	if err != nil {
		return err
	}
	switch action {
	case OptionMerge:
		l.pendingEvent = OpenMerge{Pdfs: []pdf.PdfFile{file}}
	case OptionSplit:
		l.pendingEvent = OpenSplit{Pdf: file}
	case OptionDetails:
		l.pendingEvent = OpenDetails{Pdf: file}
	case OptionRename, OptionCompress, OptionReorderPages, OptionSetPassword,
		OptionRemovePassword, OptionPrint, OptionShare, OptionDelete:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownOption, action)
	}
	return nil
}

// PendingEvent is the event waiting to be handled, or nil
func (l *PdfList) PendingEvent() Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.pendingEvent
}

// ClearPendingEvent drops the pending event
func (l *PdfList) ClearPendingEvent() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.pendingEvent = nil
}

// OnItemLongPress enters selection mode and selects the file
func (l *PdfList) OnItemLongPress(id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, err := l.findLocked(id); err != nil {
		return err
	}
	l.selectionMode = true
	l.selected[id] = true
	return nil
}

// OnItemClick toggles the file in selection mode and opens a preview otherwise
func (l *PdfList) OnItemClick(id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	file, err := l.findLocked(id)
	if err != nil {
		return err
	}
	if !l.selectionMode {
		l.pendingEvent = OpenPreview{Pdf: file}
		return nil
	}
	if l.selected[id] {
		delete(l.selected, id)
	} else {
		l.selected[id] = true
	}
	return nil
}

func (l *PdfList) isAllSelectedLocked() bool {
	return len(l.files) > 0 && len(l.selected) == len(l.files)
}

// IsAllSelected reports whether every listed file is selected; false for an empty list
func (l *PdfList) IsAllSelected() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.isAllSelectedLocked()
}

// ToggleSelectAll selects every file, or clears the selection when all are selected
func (l *PdfList) ToggleSelectAll() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.isAllSelectedLocked() {
		l.selected = make(map[string]bool)
		return
	}
	for _, f := range l.files {
		l.selected[f.ID] = true
	}
}

// ExitSelectionMode clears the selection and leaves selection mode
func (l *PdfList) ExitSelectionMode() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.selected = make(map[string]bool)
	l.selectionMode = false
}

// IsSelectionMode reports whether selection mode is on
func (l *PdfList) IsSelectionMode() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.selectionMode
}

// IsSelected reports whether a file is selected
func (l *PdfList) IsSelected(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.selected[id]
}

// Selected returns the selected files in list order
func (l *PdfList) Selected() []pdf.PdfFile {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.selectedLocked()
}

func (l *PdfList) selectedLocked() []pdf.PdfFile {
	var out []pdf.PdfFile
	for _, f := range l.files {
		if l.selected[f.ID] {
			out = append(out, f)
		}
	}
	return out
}

// SelectionCount is the number of selected files
func (l *PdfList) SelectionCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.selected)
}

// MergeSelected raises OpenMerge for the selection; nothing happens when it is empty
func (l *PdfList) MergeSelected() {
	l.mu.Lock()
	defer l.mu.Unlock()
	selected := l.selectedLocked()
	if len(selected) == 0 {
		return
	}
	l.pendingEvent = OpenMerge{Pdfs: selected}
}

// ShareSelected returns a view link for each selected file
func (l *PdfList) ShareSelected(baseURL string) []string {
	selected := l.Selected()
	links := make([]string, 0, len(selected))
	for _, f := range selected {
		links = append(links, ViewLink(baseURL, f.ID))
	}
	return links
}

// ViewLink is the URL that serves a document for viewing or download
func ViewLink(baseURL, id string) string {
	return strings.TrimRight(baseURL, "/") + "/document/view/" + id
}

// DeleteSelected deletes every selected file, leaves selection mode and reloads
func (l *PdfList) DeleteSelected(ctx context.Context) (int, error) {
	selected := l.Selected()
	if len(selected) == 0 {
		return 0, nil
	}

	deleted := 0
	var errs []error
	for _, f := range selected {
		if err := l.library.Delete(ctx, f.ID); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", f.Name, err))
			continue
		}
		deleted++
	}

	l.ExitSelectionMode()
	switch deleted {
	case 0:
	case 1:
		l.Show("Deleted 1 PDF")
	default:
		l.Show(fmt.Sprintf("Deleted %d PDFs", deleted))
	}
	if err := l.LoadAll(ctx); err != nil {
		errs = append(errs, err)
	}
	return deleted, errors.Join(errs...)
}

// ListState is a snapshot of the PDFs tab for the UI
type ListState struct {
	Loading             bool          `json:"loading"`
	ErrorText           string        `json:"errorText,omitempty"`
	Files               []pdf.Summary `json:"files"`
	OptionsPanelVisible bool          `json:"optionsPanelVisible"`
	OptionsPanelPdf     *pdf.Summary  `json:"optionsPanelPdf,omitempty"`
	SelectionMode       bool          `json:"selectionMode"`
	SelectedIDs         []string      `json:"selectedIds"`
	SelectionCount      int           `json:"selectionCount"`
	AllSelected         bool          `json:"allSelected"`
	PendingEvent        *EventView    `json:"pendingEvent,omitempty"`
}

// State snapshots the list
func (l *PdfList) State() ListState {
	l.mu.Lock()
	defer l.mu.Unlock()

	state := ListState{
		Loading:             l.loading,
		ErrorText:           l.errorText,
		Files:               make([]pdf.Summary, 0, len(l.files)),
		OptionsPanelVisible: l.optionsVisible,
		SelectionMode:       l.selectionMode,
		SelectedIDs:         []string{},
		SelectionCount:      len(l.selected),
		AllSelected:         l.isAllSelectedLocked(),
		PendingEvent:        ViewOf(l.pendingEvent),
	}
	for _, f := range l.files {
		state.Files = append(state.Files, f.Summary())
		if l.selected[f.ID] {
			state.SelectedIDs = append(state.SelectedIDs, f.ID)
		}
	}
	if l.optionsPdf != nil {
		summary := l.optionsPdf.Summary()
		state.OptionsPanelPdf = &summary
	}
	return state
}
