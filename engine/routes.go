package engine

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/gabriel-vasile/mimetype"
	"github.com/labstack/echo/v4"

	"github.com/drummonds/pdfmanager/database"
	"github.com/drummonds/pdfmanager/internal/build"
	"github.com/drummonds/pdfmanager/pdf"
	"github.com/drummonds/pdfmanager/pdfops"
	"github.com/drummonds/pdfmanager/workspace"
)

const (
	maxPageWidth    = 4000
	detailsMaxChars = 4000
)

// RegisterRoutes adds every API route plus the document view links to Echo
func (serverHandler *ServerHandler) RegisterRoutes() {
	e := serverHandler.Echo

	// PDF library routes
	e.GET("/api/pdfs", serverHandler.GetPdfs)
	e.POST("/api/pdfs/reload", serverHandler.ReloadPdfs)
	e.POST("/api/pdfs/upload", serverHandler.UploadPdfs)
	e.GET("/api/pdfs/:id", serverHandler.GetPdf)
	e.GET("/api/pdfs/:id/details", serverHandler.GetPdfDetails)
	e.PATCH("/api/pdfs/:id", serverHandler.RenamePdf)
	e.DELETE("/api/pdfs/:id", serverHandler.DeletePdf)
	e.GET("/api/pdfs/:id/pages/:page", serverHandler.GetPage)
	e.POST("/api/pdfs/:id/compress", serverHandler.CompressPdf)
	e.POST("/api/pdfs/:id/password", serverHandler.ProtectPdf)
	e.POST("/api/pdfs/:id/unlock", serverHandler.UnprotectPdf)
	e.POST("/api/pdfs/:id/reorder", serverHandler.ReorderPdf)

	// Workspace routes
	e.GET("/api/workspace", serverHandler.GetWorkspace)
	e.PUT("/api/workspace/tab", serverHandler.SetTab)

	e.POST("/api/selection/longpress/:id", serverHandler.SelectionLongPress)
	e.POST("/api/selection/click/:id", serverHandler.SelectionClick)
	e.POST("/api/selection/toggle-all", serverHandler.SelectionToggleAll)
	e.POST("/api/selection/exit", serverHandler.SelectionExit)
	e.POST("/api/selection/merge", serverHandler.SelectionMerge)
	e.GET("/api/selection/share", serverHandler.SelectionShare)
	e.POST("/api/selection/delete", serverHandler.SelectionDelete)

	e.POST("/api/options/:id/open", serverHandler.OptionsOpen)
	e.POST("/api/options/close", serverHandler.OptionsClose)
	e.POST("/api/options/:id/select", serverHandler.OptionsSelect)

	e.GET("/api/merge", serverHandler.GetMerge)
	e.POST("/api/merge", serverHandler.MergeAdd)
	e.DELETE("/api/merge", serverHandler.MergeClear)
	e.DELETE("/api/merge/:id", serverHandler.MergeRemove)
	e.POST("/api/merge/move", serverHandler.MergeMove)
	e.POST("/api/merge/preview", serverHandler.MergePreview)
	e.POST("/api/merge/run", serverHandler.MergeRun)

	e.GET("/api/split", serverHandler.GetSplit)
	e.PUT("/api/split", serverHandler.SplitUpdate)
	e.POST("/api/split/preview", serverHandler.SplitPreview)
	e.POST("/api/split/run", serverHandler.SplitRun)

	e.GET("/api/images", serverHandler.GetImages)
	e.POST("/api/images", serverHandler.ImagesUpload)
	e.DELETE("/api/images", serverHandler.ImagesClear)
	e.DELETE("/api/images/:id", serverHandler.ImagesRemove)
	e.POST("/api/images/move", serverHandler.ImagesMove)
	e.POST("/api/images/convert", serverHandler.ImagesConvert)

	e.GET("/api/preview", serverHandler.GetPreview)
	e.POST("/api/preview/:id", serverHandler.OpenPreview)
	e.DELETE("/api/preview", serverHandler.ClosePreview)
	e.DELETE("/api/details", serverHandler.CloseDetails)

	e.GET("/api/settings", serverHandler.GetSettings)
	e.PUT("/api/settings", serverHandler.UpdateSettings)
	e.GET("/api/toasts", serverHandler.DrainToasts)
	e.GET("/api/about", serverHandler.GetAboutInfo)

	// Job tracking API routes
	e.GET("/api/jobs", serverHandler.GetRecentJobs)
	e.GET("/api/jobs/active", serverHandler.GetActiveJobs)
	e.GET("/api/jobs/:id", serverHandler.GetJob)
	e.POST("/api/jobs/scan", serverHandler.RunScanNow)

	// Document view route (serves the actual file, so not under /api/*)
	e.GET("/document/view/:id", serverHandler.ViewDocument)
}

// GetPdfs returns the PDF list with its selection state
// @Summary List PDFs
// @Tags PDFs
// @Produce json
// @Success 200 {object} workspace.ListState
// @Router /pdfs [get]
func (serverHandler *ServerHandler) GetPdfs(c echo.Context) error {
	return c.JSON(http.StatusOK, serverHandler.Workspace.List.State())
}

// ReloadPdfs rescans the library folders before answering. Scan failures are
// reported through errorText in the list state.
// @Summary Rescan library folders
// @Tags PDFs
// @Produce json
// @Success 200 {object} workspace.ListState
// @Router /pdfs/reload [post]
func (serverHandler *ServerHandler) ReloadPdfs(c echo.Context) error {
	if err := serverHandler.Workspace.List.LoadAll(c.Request().Context()); err != nil {
		Logger.Warn("Library reload failed", "error", err)
	}
	return c.JSON(http.StatusOK, serverHandler.Workspace.List.State())
}

// GetPdf returns the metadata of one PDF
// @Summary Get PDF metadata
// @Tags PDFs
// @Produce json
// @Param id path string true "PDF ULID"
// @Success 200 {object} pdf.Summary
// @Failure 404 {object} map[string]interface{} "PDF not found"
// @Router /pdfs/{id} [get]
func (serverHandler *ServerHandler) GetPdf(c echo.Context) error {
	file, err := serverHandler.Library.Get(c.Param("id"))
	if err != nil {
		return apiError(c, err)
	}
	return c.JSON(http.StatusOK, file.Summary())
}

// pdfDetails is what the details overlay shows
type pdfDetails struct {
	pdf.Summary
	Location  string `json:"location"`
	ViewURL   string `json:"viewURL"`
	Text      string `json:"text"`
	TextError string `json:"textError,omitempty"`
}

// GetPdfDetails returns metadata plus the start of the document text
// @Summary Get PDF details
// @Tags PDFs
// @Produce json
// @Param id path string true "PDF ULID"
// @Success 200 {object} pdfDetails
// @Router /pdfs/{id}/details [get]
func (serverHandler *ServerHandler) GetPdfDetails(c echo.Context) error {
	file, err := serverHandler.Library.Get(c.Param("id"))
	if err != nil {
		return apiError(c, err)
	}
	details := pdfDetails{
		Summary:  file.Summary(),
		Location: file.StoragePath,
		ViewURL:  workspace.ViewLink("", file.ID),
	}
	if file.IsLocked {
		details.TextError = "This PDF is password-protected"
		return c.JSON(http.StatusOK, details)
	}
	path, err := pdf.PathFromURI(file.URI)
	if err != nil {
		return apiError(c, err)
	}
	text, err := pdfops.ExtractText(path, detailsMaxChars)
	if err != nil {
		details.TextError = err.Error()
	}
	details.Text = text
	return c.JSON(http.StatusOK, details)
}

type renameRequest struct {
	Name string `json:"name"`
}

// RenamePdf renames a PDF on disk
// @Summary Rename a PDF
// @Tags PDFs
// @Accept json
// @Produce json
// @Param id path string true "PDF ULID"
// @Success 200 {object} pdf.Summary
// @Failure 400 {object} map[string]interface{} "Invalid name"
// @Failure 409 {object} map[string]interface{} "Name already taken"
// @Router /pdfs/{id} [patch]
func (serverHandler *ServerHandler) RenamePdf(c echo.Context) error {
	var req renameRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	id := c.Param("id")
	file, err := serverHandler.Library.Rename(c.Request().Context(), id, req.Name)
	if err != nil {
		return apiError(c, err)
	}
	serverHandler.Workspace.Forget(id)
	serverHandler.refreshList()
	serverHandler.Workspace.Toasts.Push("Renamed to " + file.Name)
	return c.JSON(http.StatusOK, file.Summary())
}

// DeletePdf deletes a PDF from disk and the index
// @Summary Delete a PDF
// @Tags PDFs
// @Produce json
// @Param id path string true "PDF ULID"
// @Success 200 {object} map[string]interface{}
// @Router /pdfs/{id} [delete]
func (serverHandler *ServerHandler) DeletePdf(c echo.Context) error {
	id := c.Param("id")
	file, err := serverHandler.Library.Get(id)
	if err != nil {
		return apiError(c, err)
	}
	if err := serverHandler.Library.Delete(c.Request().Context(), id); err != nil {
		return apiError(c, err)
	}
	serverHandler.Workspace.Forget(id)
	serverHandler.refreshList()
	serverHandler.Workspace.Toasts.Push("Deleted " + file.Name)
	return c.JSON(http.StatusOK, map[string]interface{}{
		"deleted": id,
	})
}

// GetPage renders one page as PNG through the render cache
// @Summary Render a page
// @Tags PDFs
// @Produce png
// @Param id path string true "PDF ULID"
// @Param page path int true "Zero based page index"
// @Param width query int false "Target width in pixels"
// @Success 200 {file} binary
// @Failure 404 {object} map[string]interface{} "Page out of range"
// @Failure 423 {object} map[string]interface{} "PDF is password-protected"
// @Router /pdfs/{id}/pages/{page} [get]
func (serverHandler *ServerHandler) GetPage(c echo.Context) error {
	pageIndex, err := strconv.Atoi(c.Param("page"))
	if err != nil {
		return badRequest(c, "Invalid page index")
	}
	width := serverHandler.ServerConfig.PreviewWidth
	if widthStr := c.QueryParam("width"); widthStr != "" {
		if width, err = strconv.Atoi(widthStr); err != nil {
			return badRequest(c, "Invalid width")
		}
	}
	width = min(width, maxPageWidth)

	file, err := serverHandler.Library.Get(c.Param("id"))
	if err != nil {
		return apiError(c, err)
	}
	img, err := serverHandler.Cache.RenderPage(c.Request().Context(), file.URI, pageIndex, width)
	if err != nil {
		return apiError(c, err)
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return apiError(c, fmt.Errorf("unable to encode page: %w", err))
	}
	c.Response().Header().Set("Cache-Control", "private, max-age=60")
	return c.Blob(http.StatusOK, "image/png", buf.Bytes())
}

// UploadPdfs stores picked documents in the upload folder and indexes them
// @Summary Upload PDFs
// @Tags PDFs
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "PDF file (repeatable)"
// @Success 200 {array} pdf.Summary
// @Failure 400 {object} map[string]interface{} "Not a PDF"
// @Router /pdfs/upload [post]
func (serverHandler *ServerHandler) UploadPdfs(c echo.Context) error {
	headers, err := formFiles(c)
	if err != nil {
		return badRequest(c, err.Error())
	}
	ctx := c.Request().Context()
	uploaded := make([]pdf.Summary, 0, len(headers))
	for _, header := range headers {
		path, err := saveUpload(header, serverHandler.ServerConfig.UploadPath)
		if err != nil {
			return apiError(c, err)
		}
		mtype, err := mimetype.DetectFile(path)
		if err != nil || !mtype.Is("application/pdf") {
			os.Remove(path)
			return badRequest(c, fmt.Sprintf("%s is not a PDF", header.Filename))
		}
		file, err := serverHandler.Library.LoadMetadata(ctx, pdf.FileURI(path))
		if err != nil {
			return apiError(c, err)
		}
		Logger.Info("Uploaded PDF", "name", file.Name, "path", path)
		uploaded = append(uploaded, file.Summary())
	}
	serverHandler.refreshList()
	return c.JSON(http.StatusOK, uploaded)
}

// ViewDocument serves the PDF itself for viewing, download or sharing
func (serverHandler *ServerHandler) ViewDocument(c echo.Context) error {
	file, err := serverHandler.Library.Get(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Document not found")
	}
	path, err := pdf.PathFromURI(file.URI)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Document not found")
	}
	return c.Inline(path, file.Name)
}

// CompressPdf optimizes a PDF into a new file as a background job
// @Summary Compress a PDF
// @Tags PDFs
// @Produce json
// @Param id path string true "PDF ULID"
// @Success 202 {object} database.Job
// @Router /pdfs/{id}/compress [post]
func (serverHandler *ServerHandler) CompressPdf(c echo.Context) error {
	return serverHandler.fileJob(c, database.JobTypeCompress, "Compressing", "_compressed", true,
		func(ctx context.Context, in, out string) (string, error) {
			before, after, err := pdfops.Compress(ctx, in, out)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("%s → %s", pdf.FormatBytes(before), pdf.FormatBytes(after)), nil
		})
}

type passwordRequest struct {
	UserPassword  string `json:"userPassword"`
	OwnerPassword string `json:"ownerPassword"`
	Password      string `json:"password"`
}

// ProtectPdf writes an AES-256 encrypted copy of a PDF as a background job
// @Summary Set a password
// @Tags PDFs
// @Accept json
// @Produce json
// @Param id path string true "PDF ULID"
// @Success 202 {object} database.Job
// @Router /pdfs/{id}/password [post]
func (serverHandler *ServerHandler) ProtectPdf(c echo.Context) error {
	var req passwordRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if strings.TrimSpace(req.UserPassword) == "" {
		return apiError(c, pdfops.ErrEmptyPassword)
	}
	owner := req.OwnerPassword
	if owner == "" {
		owner = req.UserPassword
	}
	return serverHandler.fileJob(c, database.JobTypeProtect, "Setting password", "_protected", true,
		func(ctx context.Context, in, out string) (string, error) {
			return "", pdfops.SetPassword(ctx, in, out, req.UserPassword, owner)
		})
}

// UnprotectPdf writes a decrypted copy of a locked PDF as a background job
// @Summary Remove a password
// @Tags PDFs
// @Accept json
// @Produce json
// @Param id path string true "PDF ULID"
// @Success 202 {object} database.Job
// @Router /pdfs/{id}/unlock [post]
func (serverHandler *ServerHandler) UnprotectPdf(c echo.Context) error {
	var req passwordRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.Password == "" {
		return apiError(c, pdfops.ErrEmptyPassword)
	}
	return serverHandler.fileJob(c, database.JobTypeUnprotect, "Removing password", "_unlocked", false,
		func(ctx context.Context, in, out string) (string, error) {
			return "", pdfops.RemovePassword(ctx, in, out, req.Password)
		})
}

type reorderRequest struct {
	Order []int `json:"order"`
}

// ReorderPdf writes a copy of a PDF with its pages in a new order
// @Summary Reorder pages
// @Tags PDFs
// @Accept json
// @Produce json
// @Param id path string true "PDF ULID"
// @Success 202 {object} database.Job
// @Failure 400 {object} map[string]interface{} "Order is not a permutation of the pages"
// @Router /pdfs/{id}/reorder [post]
func (serverHandler *ServerHandler) ReorderPdf(c echo.Context) error {
	var req reorderRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	file, err := serverHandler.Library.Get(c.Param("id"))
	if err != nil {
		return apiError(c, err)
	}
	if err := pdfops.ValidateOrder(req.Order, file.PagesCount); err != nil {
		return apiError(c, err)
	}
	return serverHandler.fileJob(c, database.JobTypeReorder, "Reordering pages", "_reordered", true,
		func(ctx context.Context, in, out string) (string, error) {
			return "", pdfops.ReorderPages(ctx, in, out, req.Order)
		})
}

// fileJob runs op on the PDF named by the id parameter, writing to a fresh
// file in the output folder, and indexes the result. With needsUnlocked set
// locked documents are refused; without it only locked documents are accepted.
func (serverHandler *ServerHandler) fileJob(c echo.Context, jobType database.JobType, verb, suffix string, needsUnlocked bool,
	op func(ctx context.Context, in, out string) (string, error)) error {
	file, err := serverHandler.Library.Get(c.Param("id"))
	if err != nil {
		return apiError(c, err)
	}
	if needsUnlocked && file.IsLocked {
		return apiError(c, workspace.ErrLocked)
	}
	if !needsUnlocked && !file.IsLocked {
		return badRequest(c, "This PDF is not password-protected")
	}
	in, err := pdf.PathFromURI(file.URI)
	if err != nil {
		return apiError(c, err)
	}

	message := fmt.Sprintf("%s %s", verb, file.Name)
	job, err := serverHandler.startJob(jobType, message, func(ctx context.Context, progress func(int, string)) (database.JobResult, error) {
		stem := strings.TrimSuffix(file.Name, filepath.Ext(file.Name)) + suffix
		out, err := pdfops.UniquePath(serverHandler.ServerConfig.OutputPath, stem, ".pdf")
		if err != nil {
			return database.JobResult{}, err
		}
		progress(20, message)
		details, err := op(ctx, in, out)
		if err != nil {
			return database.JobResult{}, err
		}
		progress(90, "Indexing "+filepath.Base(out))
		result, err := serverHandler.Library.LoadMetadata(ctx, pdf.FileURI(out))
		if err != nil {
			return database.JobResult{}, err
		}
		return database.JobResult{Outputs: []string{result.ID}, Pages: result.PagesCount, Details: details}, nil
	})
	if err != nil {
		return apiError(c, err)
	}
	return c.JSON(http.StatusAccepted, job)
}

// GetAboutInfo returns information about the application configuration
// @Summary Get application information
// @Tags Admin
// @Produce json
// @Success 200 {object} map[string]interface{} "Application information"
// @Router /about [get]
func (serverHandler *ServerHandler) GetAboutInfo(c echo.Context) error {
	aboutInfo := map[string]interface{}{
		"appName":         "PDF Manager",
		"tagline":         "Your complete PDF toolkit",
		"version":         build.Version,
		"renderer":        serverHandler.ServerConfig.Renderer,
		"cachedDocuments": serverHandler.Cache.Len(),
		"databaseType":    serverHandler.ServerConfig.DatabaseType,
		"databaseHost":    serverHandler.ServerConfig.DatabaseHost,
		"databasePort":    serverHandler.ServerConfig.DatabasePort,
		"databaseName":    serverHandler.ServerConfig.DatabaseDbname,
		"isEphemeral":     serverHandler.ServerConfig.DatabaseType == "ephemeral",
		"libraryPaths":    serverHandler.ServerConfig.LibraryPaths,
		"outputPath":      serverHandler.ServerConfig.OutputPath,
		"uploadPath":      serverHandler.ServerConfig.UploadPath,
	}
	return c.JSON(http.StatusOK, aboutInfo)
}

func (serverHandler *ServerHandler) refreshList() {
	if err := serverHandler.Workspace.List.Refresh(); err != nil {
		Logger.Warn("Unable to refresh PDF list", "error", err)
	}
}

// formFiles returns every file posted under "file" or "files"
func formFiles(c echo.Context) ([]*multipart.FileHeader, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, fmt.Errorf("expected a multipart upload: %w", err)
	}
	var headers []*multipart.FileHeader
	headers = append(headers, form.File["file"]...)
	headers = append(headers, form.File["files"]...)
	if len(headers) == 0 {
		return nil, fmt.Errorf("no files uploaded")
	}
	return headers, nil
}

// saveUpload copies an uploaded file into dir under a free name
func saveUpload(header *multipart.FileHeader, dir string) (string, error) {
	name := filepath.Base(header.Filename)
	if name == "." || name == string(filepath.Separator) || name == "" {
		name = "upload"
	}
	ext := filepath.Ext(name)
	path, err := pdfops.UniquePath(dir, strings.TrimSuffix(name, ext), ext)
	if err != nil {
		return "", err
	}
	src, err := header.Open()
	if err != nil {
		return "", fmt.Errorf("unable to read upload %s: %w", name, err)
	}
	defer src.Close()
	dst, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("unable to store upload %s: %w", name, err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(path)
		return "", fmt.Errorf("unable to store upload %s: %w", name, err)
	}
	return path, dst.Close()
}
