package webapp

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/maxence-charriere/go-app/v10/pkg/app"
)

// GetAPIBaseURL returns the configured API base URL
// It reads from window.pdfManagerConfig.apiURL if available,
// otherwise falls back to empty string (relative URLs)
func GetAPIBaseURL() string {
	if !app.IsClient {
		return "" // Server-side rendering - use relative URLs
	}

	config := app.Window().Get("pdfManagerConfig")
	if config.Truthy() {
		apiURL := config.Get("apiURL")
		if apiURL.Truthy() {
			return strings.TrimSuffix(apiURL.String(), "/")
		}
	}
	return ""
}

// BuildAPIURL constructs a full API URL from a path
// Example: BuildAPIURL("/api/pdfs") -> "http://backend:8000/api/pdfs"
// or just "/api/pdfs" if using relative URLs
func BuildAPIURL(path string) string {
	baseURL := GetAPIBaseURL()
	if baseURL == "" {
		return path
	}
	return baseURL + path
}

// previewWidth is the page width requested when config.js does not set one
const previewWidth = 800

// PreviewWidth reads window.pdfManagerConfig.previewWidth
func PreviewWidth() int {
	if !app.IsClient {
		return previewWidth
	}
	config := app.Window().Get("pdfManagerConfig")
	if config.Truthy() && config.Get("previewWidth").Truthy() {
		return config.Get("previewWidth").Int()
	}
	return previewWidth
}

// PageImageURL is the rendered PNG of one zero based page
func PageImageURL(id string, pageIndex, width int) string {
	return BuildAPIURL(fmt.Sprintf("/api/pdfs/%s/pages/%d?width=%d", url.PathEscape(id), pageIndex, width))
}

// apiError is the {"error": ...} body every failing endpoint returns
type apiError struct {
	Error string `json:"error"`
}

// errNetwork is reported when fetch itself fails
var errNetwork = errors.New("Network error: Could not connect to server")

// decodeResponse unmarshals a 2xx body into out, or turns an error body into an error
func decodeResponse(status int, body string, out any) error {
	if status < 200 || status >= 300 {
		var apiErr apiError
		if err := json.Unmarshal([]byte(body), &apiErr); err == nil && apiErr.Error != "" {
			return errors.New(apiErr.Error)
		}
		return fmt.Errorf("request failed (status: %d)", status)
	}
	if out == nil || strings.TrimSpace(body) == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(body), out); err != nil {
		return fmt.Errorf("Failed to parse response: %w", err)
	}
	return nil
}

// callAPI sends a JSON request to the backend and decodes the answer into
// out. done runs on the UI goroutine.
func callAPI(ctx app.Context, method, path string, body any, out any, done func(err error)) {
	ctx.Async(func() {
		options := map[string]interface{}{"method": method}
		if body != nil {
			data, err := json.Marshal(body)
			if err != nil {
				ctx.Dispatch(func(ctx app.Context) { done(err) })
				return
			}
			options["body"] = string(data)
			options["headers"] = map[string]interface{}{"Content-Type": "application/json"}
		}
		fetch(ctx, app.Window().Call("fetch", BuildAPIURL(path), options), out, done)
	})
}

// uploadFiles posts the files picked in a file input as multipart form data
func uploadFiles(ctx app.Context, path string, input app.Value, out any, done func(err error)) {
	ctx.Async(func() {
		form := app.Window().Get("FormData").New()
		files := input.Get("files")
		for i := 0; i < files.Length(); i++ {
			form.Call("append", "files", files.Index(i))
		}
		fetch(ctx, app.Window().Call("fetch", BuildAPIURL(path), map[string]interface{}{
			"method": "POST",
			"body":   form,
		}), out, done)
	})
}

func fetch(ctx app.Context, res app.Value, out any, done func(err error)) {
	res.Call("then", app.FuncOf(func(this app.Value, args []app.Value) any {
		if len(args) == 0 {
			return nil
		}
		response := args[0]
		status := response.Get("status").Int()

		response.Call("text").Call("then", app.FuncOf(func(this app.Value, args []app.Value) any {
			if len(args) == 0 {
				return nil
			}
			body := args[0].String()
			ctx.Dispatch(func(ctx app.Context) {
				done(decodeResponse(status, body, out))
			})
			return nil
		}))
		return nil
	})).Call("catch", app.FuncOf(func(this app.Value, args []app.Value) any {
		ctx.Dispatch(func(ctx app.Context) { done(errNetwork) })
		return nil
	}))
}

// Job represents a background job
type Job struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	Status      string `json:"status"`
	Progress    int    `json:"progress"`
	CurrentStep string `json:"currentStep"`
	TotalSteps  int    `json:"totalSteps"`
	Message     string `json:"message"`
	Error       string `json:"error,omitempty"`
	Result      string `json:"result,omitempty"`
	CreatedAt   string `json:"createdAt"`
	UpdatedAt   string `json:"updatedAt"`
	StartedAt   string `json:"startedAt,omitempty"`
	CompletedAt string `json:"completedAt,omitempty"`
}

// JobResult is the JSON stored in Job.Result
type JobResult struct {
	Outputs []string `json:"outputs"`
	Pages   int      `json:"pages,omitempty"`
	Details string   `json:"details,omitempty"`
}

// PdfFile is one document with its display strings
type PdfFile struct {
	ID                       string `json:"id"`
	URI                      string `json:"uri"`
	Name                     string `json:"name"`
	SizeBytes                int64  `json:"sizeBytes"`
	PagesCount               int    `json:"pagesCount"`
	StoragePath              string `json:"storagePath"`
	LastModifiedEpochSeconds int64  `json:"lastModifiedEpochSeconds"`
	CreatedEpochSeconds      int64  `json:"createdEpochSeconds"`
	IsLocked                 bool   `json:"isLocked"`
	Size                     string `json:"size"`
	MetaLine                 string `json:"metaLine"`
	CreatedDate              string `json:"createdDate"`
	LastModifiedDate         string `json:"lastModifiedDate"`
}

// PdfDetails is GET /api/pdfs/:id/details
type PdfDetails struct {
	PdfFile
	Location  string `json:"location"`
	ViewURL   string `json:"viewURL"`
	Text      string `json:"text"`
	TextError string `json:"textError,omitempty"`
}

// PendingEvent is a navigation request raised by the PDF list
type PendingEvent struct {
	Kind string   `json:"kind"`
	IDs  []string `json:"ids"`
}

// ListState is the PDFs tab
type ListState struct {
	Loading             bool          `json:"loading"`
	ErrorText           string        `json:"errorText,omitempty"`
	Files               []PdfFile     `json:"files"`
	OptionsPanelVisible bool          `json:"optionsPanelVisible"`
	OptionsPanelPdf     *PdfFile      `json:"optionsPanelPdf,omitempty"`
	SelectionMode       bool          `json:"selectionMode"`
	SelectedIDs         []string      `json:"selectedIds"`
	SelectionCount      int           `json:"selectionCount"`
	AllSelected         bool          `json:"allSelected"`
	PendingEvent        *PendingEvent `json:"pendingEvent,omitempty"`
}

// IsSelected reports whether id is in the selection
func (l ListState) IsSelected(id string) bool {
	for _, selected := range l.SelectedIDs {
		if selected == id {
			return true
		}
	}
	return false
}

// MergeState is the Merge tab
type MergeState struct {
	Pdfs       []PdfFile `json:"pdfs"`
	Total      int       `json:"total"`
	TotalPages int       `json:"totalPages"`
	IsActive   bool      `json:"isActive"`
	Running    bool      `json:"running"`
}

// PageRange is an inclusive, 1-based range of pages
type PageRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// SplitState is the Split tab
type SplitState struct {
	Pdf              *PdfFile    `json:"pdf,omitempty"`
	Method           int         `json:"method"`
	MethodName       string      `json:"methodName"`
	RangesText       string      `json:"rangesText"`
	PagesPerFileText string      `json:"pagesPerFileText"`
	Plan             []PageRange `json:"plan"`
	PlanError        string      `json:"planError,omitempty"`
	Running          bool        `json:"running"`
}

// ImageItem is one picked image
type ImageItem struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	WidthPx  int    `json:"widthPx"`
	HeightPx int    `json:"heightPx"`
}

// ImagesState is the Images tab
type ImagesState struct {
	Items         []ImageItem `json:"items"`
	SelectedCount int         `json:"selectedCount"`
	IsActive      bool        `json:"isActive"`
	Running       bool        `json:"running"`
}

// Settings are the Settings tab toggles
type Settings struct {
	DarkMode      bool `json:"darkMode"`
	Notifications bool `json:"notifications"`
}

// PageRef is one page of a preview
type PageRef struct {
	Key       string `json:"key"`
	ID        string `json:"id"`
	URI       string `json:"uri"`
	Name      string `json:"name"`
	PageIndex int    `json:"pageIndex"`
	Group     int    `json:"group"`
}

// PreviewState is the open preview
type PreviewState struct {
	Kind      string    `json:"kind"`
	Title     string    `json:"title"`
	Pages     []PageRef `json:"pages"`
	EmptyText string    `json:"emptyText,omitempty"`
}

// WorkspaceState is GET /api/workspace
type WorkspaceState struct {
	ActiveTab string        `json:"activeTab"`
	List      ListState     `json:"list"`
	Merge     MergeState    `json:"merge"`
	Split     SplitState    `json:"split"`
	Images    ImagesState   `json:"images"`
	Settings  Settings      `json:"settings"`
	Preview   *PreviewState `json:"preview,omitempty"`
	Details   *PdfFile      `json:"details,omitempty"`
}

// Toast is a transient message from the backend
type Toast struct {
	Text string `json:"text"`
	At   string `json:"at"`
}
