package workspace

import (
	"fmt"

	"github.com/drummonds/pdfmanager/pdf"
	"github.com/drummonds/pdfmanager/pdfops"
)

// PreviewKind tells the three preview sources apart
type PreviewKind string

const (
	PreviewSingle PreviewKind = "single"
	PreviewMerge  PreviewKind = "merge"
	PreviewSplit  PreviewKind = "split"
)

const (
	previewTitle     = "Preview"
	noPagesToPreview = "No pages to preview"
)

// PreviewRequest is what the Preview overlay shows
type PreviewRequest struct {
	Kind        PreviewKind        `json:"kind"`
	Pdfs        []pdf.PdfFile      `json:"pdfs"`
	SplitMethod pdfops.SplitMethod `json:"splitMethod"`
	Plan        []pdfops.PageRange `json:"plan,omitempty"`
}

// SinglePreview shows every page of one document
func SinglePreview(p pdf.PdfFile) PreviewRequest {
	return PreviewRequest{Kind: PreviewSingle, Pdfs: []pdf.PdfFile{p}}
}

// MergePreview shows the pages a merge of pdfs would produce
func MergePreview(pdfs []pdf.PdfFile) PreviewRequest {
	return PreviewRequest{Kind: PreviewMerge, Pdfs: append([]pdf.PdfFile(nil), pdfs...)}
}

// SplitPreview shows the pages of each planned output file
func SplitPreview(p pdf.PdfFile, method pdfops.SplitMethod, plan []pdfops.PageRange) PreviewRequest {
	return PreviewRequest{
		Kind:        PreviewSplit,
		Pdfs:        []pdf.PdfFile{p},
		SplitMethod: method,
		Plan:        append([]pdfops.PageRange(nil), plan...),
	}
}

// Title is the file name for a single document and "Preview" otherwise
func (r PreviewRequest) Title() string {
	if r.Kind == PreviewSingle && len(r.Pdfs) == 1 {
		return r.Pdfs[0].Name
	}
	return previewTitle
}

// PageRef addresses one page to render. Group numbers the output file of a
// split preview and is zero otherwise.
type PageRef struct {
	Key       string `json:"key"`
	ID        string `json:"id"`
	URI       string `json:"uri"`
	Name      string `json:"name"`
	PageIndex int    `json:"pageIndex"`
	Group     int    `json:"group,omitempty"`
}

// Pages flattens the request into page refs in display order
func (r PreviewRequest) Pages() []PageRef {
	pages := []PageRef{}
	if r.Kind == PreviewSplit {
		if len(r.Pdfs) == 0 {
			return pages
		}
		p := r.Pdfs[0]
		for g, rng := range r.Plan {
			for n := max(rng.Start, 1); n <= min(rng.End, p.PagesCount); n++ {
				ref := pageRef(p, n-1)
				ref.Group = g + 1
				ref.Key = fmt.Sprintf("%s@%d", ref.Key, ref.Group)
				pages = append(pages, ref)
			}
		}
		return pages
	}
	for _, p := range r.Pdfs {
		for i := 0; i < max(p.PagesCount, 0); i++ {
			pages = append(pages, pageRef(p, i))
		}
	}
	return pages
}

func pageRef(p pdf.PdfFile, index int) PageRef {
	return PageRef{
		Key:       fmt.Sprintf("%s#%d", p.URI, index),
		ID:        p.ID,
		URI:       p.URI,
		Name:      p.Name,
		PageIndex: index,
	}
}

// EmptyText is "No pages to preview" when there are documents but no pages
func (r PreviewRequest) EmptyText() string {
	if len(r.Pdfs) > 0 && len(r.Pages()) == 0 {
		return noPagesToPreview
	}
	return ""
}

// PreviewState is the JSON form of a request with its pages resolved
type PreviewState struct {
	Kind      PreviewKind `json:"kind"`
	Title     string      `json:"title"`
	Pages     []PageRef   `json:"pages"`
	EmptyText string      `json:"emptyText,omitempty"`
}

func (r PreviewRequest) State() PreviewState {
	pages := r.Pages()
	state := PreviewState{Kind: r.Kind, Title: r.Title(), Pages: pages}
	if len(r.Pdfs) > 0 && len(pages) == 0 {
		state.EmptyText = noPagesToPreview
	}
	return state
}
