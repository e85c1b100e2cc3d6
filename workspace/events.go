package workspace

import "github.com/drummonds/pdfmanager/pdf"

// Event is a one-shot navigation request raised by the PDFs tab. It stays
// pending until Workspace.HandlePendingEvent consumes it.
type Event interface {
	isEvent()
}

// OpenMerge adds documents to the merge set
type OpenMerge struct{ Pdfs []pdf.PdfFile }

// OpenSplit makes a document the split selection
type OpenSplit struct{ Pdf pdf.PdfFile }

// OpenPreview shows a document's pages
type OpenPreview struct{ Pdf pdf.PdfFile }

// OpenDetails shows a document's details overlay
type OpenDetails struct{ Pdf pdf.PdfFile }

func (OpenMerge) isEvent()   {}
func (OpenSplit) isEvent()   {}
func (OpenPreview) isEvent() {}
func (OpenDetails) isEvent() {}

// EventView is the JSON form of an Event
type EventView struct {
	Kind string   `json:"kind"`
	IDs  []string `json:"ids"`
}

// ViewOf describes an event for the UI; nil for no event
func ViewOf(e Event) *EventView {
	switch ev := e.(type) {
	case OpenMerge:
		view := &EventView{Kind: "openMerge"}
		for _, p := range ev.Pdfs {
			view.IDs = append(view.IDs, p.ID)
		}
		return view
	case OpenSplit:
		return &EventView{Kind: "openSplit", IDs: []string{ev.Pdf.ID}}
	case OpenPreview:
		return &EventView{Kind: "openPreview", IDs: []string{ev.Pdf.ID}}
	case OpenDetails:
		return &EventView{Kind: "openDetails", IDs: []string{ev.Pdf.ID}}
	default:
		return nil
	}
}
