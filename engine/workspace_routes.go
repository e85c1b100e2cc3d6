package engine

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
	"github.com/labstack/echo/v4"

	"github.com/drummonds/pdfmanager/database"
	"github.com/drummonds/pdfmanager/pdfops"
	"github.com/drummonds/pdfmanager/workspace"
)

// imageTypes are the uploads the Images tab accepts
var imageTypes = []string{"image/png", "image/jpeg", "image/tiff"}

// workspaceState answers with the whole workspace after routing any event the
// request raised
func (serverHandler *ServerHandler) workspaceState(c echo.Context) error {
	serverHandler.Workspace.HandlePendingEvent()
	return c.JSON(http.StatusOK, serverHandler.Workspace.State())
}

// GetWorkspace returns the state of every tab
// @Summary Get workspace state
// @Tags Workspace
// @Produce json
// @Success 200 {object} workspace.State
// @Router /workspace [get]
func (serverHandler *ServerHandler) GetWorkspace(c echo.Context) error {
	return serverHandler.workspaceState(c)
}

type tabRequest struct {
	Tab string `json:"tab"`
}

// SetTab switches the active tab
func (serverHandler *ServerHandler) SetTab(c echo.Context) error {
	var req tabRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	tab, err := workspace.ParseTab(req.Tab)
	if err != nil {
		return apiError(c, err)
	}
	serverHandler.Workspace.SetTab(tab)
	return serverHandler.workspaceState(c)
}

// SelectionLongPress enters selection mode with the PDF selected
// @Summary Long press a PDF
// @Tags Selection
// @Produce json
// @Param id path string true "PDF ULID"
// @Success 200 {object} workspace.State
// @Router /selection/longpress/{id} [post]
func (serverHandler *ServerHandler) SelectionLongPress(c echo.Context) error {
	if err := serverHandler.Workspace.List.OnItemLongPress(c.Param("id")); err != nil {
		return apiError(c, err)
	}
	return serverHandler.workspaceState(c)
}

// SelectionClick toggles the PDF in selection mode, otherwise opens its preview
// @Summary Click a PDF
// @Tags Selection
// @Produce json
// @Param id path string true "PDF ULID"
// @Success 200 {object} workspace.State
// @Router /selection/click/{id} [post]
func (serverHandler *ServerHandler) SelectionClick(c echo.Context) error {
	if err := serverHandler.Workspace.List.OnItemClick(c.Param("id")); err != nil {
		return apiError(c, err)
	}
	return serverHandler.workspaceState(c)
}

func (serverHandler *ServerHandler) SelectionToggleAll(c echo.Context) error {
	serverHandler.Workspace.List.ToggleSelectAll()
	return serverHandler.workspaceState(c)
}

func (serverHandler *ServerHandler) SelectionExit(c echo.Context) error {
	serverHandler.Workspace.List.ExitSelectionMode()
	return serverHandler.workspaceState(c)
}

// SelectionMerge moves the selection into the merge set
func (serverHandler *ServerHandler) SelectionMerge(c echo.Context) error {
	serverHandler.Workspace.List.MergeSelected()
	return serverHandler.workspaceState(c)
}

// SelectionShare returns view links for the selection
// @Summary Share the selection
// @Tags Selection
// @Produce json
// @Success 200 {object} map[string]interface{} "links"
// @Router /selection/share [get]
func (serverHandler *ServerHandler) SelectionShare(c echo.Context) error {
	base := serverHandler.ServerConfig.ServerAPIURL
	if base == "" {
		base = c.Scheme() + "://" + c.Request().Host
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"links": serverHandler.Workspace.List.ShareSelected(base),
	})
}

// SelectionDelete deletes every selected PDF
// @Summary Delete the selection
// @Tags Selection
// @Produce json
// @Success 200 {object} workspace.State
// @Router /selection/delete [post]
func (serverHandler *ServerHandler) SelectionDelete(c echo.Context) error {
	selected := serverHandler.Workspace.List.Selected()
	_, err := serverHandler.Workspace.List.DeleteSelected(c.Request().Context())
	for _, f := range selected {
		if _, getErr := serverHandler.Library.Get(f.ID); getErr != nil {
			serverHandler.Workspace.Forget(f.ID)
		}
	}
	if err != nil {
		return apiError(c, err)
	}
	return serverHandler.workspaceState(c)
}

func (serverHandler *ServerHandler) OptionsOpen(c echo.Context) error {
	if err := serverHandler.Workspace.List.OpenOptions(c.Param("id")); err != nil {
		return apiError(c, err)
	}
	return serverHandler.workspaceState(c)
}

func (serverHandler *ServerHandler) OptionsClose(c echo.Context) error {
	serverHandler.Workspace.List.CloseOptions()
	return serverHandler.workspaceState(c)
}

type optionRequest struct {
	Action string `json:"action"`
}

// OptionsSelect handles a choice from the options panel. Navigating options
// change the workspace; the rest are carried out by their own routes.
// @Summary Choose a file option
// @Tags Options
// @Accept json
// @Produce json
// @Param id path string true "PDF ULID"
// @Success 200 {object} workspace.State
// @Router /options/{id}/select [post]
func (serverHandler *ServerHandler) OptionsSelect(c echo.Context) error {
	var req optionRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	action, err := workspace.ParseFileOption(req.Action)
	if err != nil {
		return apiError(c, err)
	}
	if err := serverHandler.Workspace.List.OnFileOptionSelected(action, c.Param("id")); err != nil {
		return apiError(c, err)
	}
	return serverHandler.workspaceState(c)
}

func (serverHandler *ServerHandler) GetMerge(c echo.Context) error {
	return c.JSON(http.StatusOK, serverHandler.Workspace.Merge.State())
}

type idsRequest struct {
	IDs []string `json:"ids"`
}

// MergeAdd adds PDFs to the merge set
// @Summary Add PDFs to the merge set
// @Tags Merge
// @Accept json
// @Produce json
// @Success 200 {object} workspace.MergeState
// @Router /merge [post]
func (serverHandler *ServerHandler) MergeAdd(c echo.Context) error {
	var req idsRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	files, err := serverHandler.Library.GetMany(req.IDs)
	if err != nil {
		return apiError(c, err)
	}
	serverHandler.Workspace.Merge.Add(files...)
	return c.JSON(http.StatusOK, serverHandler.Workspace.Merge.State())
}

func (serverHandler *ServerHandler) MergeRemove(c echo.Context) error {
	if err := serverHandler.Workspace.Merge.Remove(c.Param("id")); err != nil {
		return apiError(c, err)
	}
	return c.JSON(http.StatusOK, serverHandler.Workspace.Merge.State())
}

func (serverHandler *ServerHandler) MergeClear(c echo.Context) error {
	serverHandler.Workspace.Merge.Clear()
	return c.JSON(http.StatusOK, serverHandler.Workspace.Merge.State())
}

type moveRequest struct {
	From int `json:"from"`
	To   int `json:"to"`
}

func (serverHandler *ServerHandler) MergeMove(c echo.Context) error {
	var req moveRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if err := serverHandler.Workspace.Merge.Move(req.From, req.To); err != nil {
		return apiError(c, err)
	}
	return c.JSON(http.StatusOK, serverHandler.Workspace.Merge.State())
}

// MergePreview opens the preview of the merged document
func (serverHandler *ServerHandler) MergePreview(c echo.Context) error {
	serverHandler.Workspace.OpenPreview(workspace.MergePreview(serverHandler.Workspace.Merge.Pdfs()))
	return serverHandler.GetPreview(c)
}

// MergeRun merges the set as a background job
// @Summary Merge the merge set
// @Tags Merge
// @Produce json
// @Success 202 {object} database.Job
// @Failure 400 {object} map[string]interface{} "Fewer than two PDFs"
// @Router /merge/run [post]
func (serverHandler *ServerHandler) MergeRun(c echo.Context) error {
	total := serverHandler.Workspace.Merge.Total()
	if total < 2 {
		return apiError(c, fmt.Errorf("%w: merge needs at least two PDFs", workspace.ErrNoSelection))
	}
	message := fmt.Sprintf("Merging %d PDFs", total)
	job, err := serverHandler.startJob(database.JobTypeMerge, message, func(ctx context.Context, progress func(int, string)) (database.JobResult, error) {
		progress(10, message)
		merged, err := serverHandler.Workspace.Merge.Merge(ctx)
		if err != nil {
			return database.JobResult{}, err
		}
		return database.JobResult{Outputs: []string{merged.ID}, Pages: merged.PagesCount}, nil
	})
	if err != nil {
		return apiError(c, err)
	}
	return c.JSON(http.StatusAccepted, job)
}

func (serverHandler *ServerHandler) GetSplit(c echo.Context) error {
	return c.JSON(http.StatusOK, serverHandler.Workspace.Split.State())
}

// splitRequest updates the Split tab; nil fields are left alone
type splitRequest struct {
	ID               *string `json:"id"`
	Method           *int    `json:"method"`
	RangesText       *string `json:"rangesText"`
	PagesPerFileText *string `json:"pagesPerFileText"`
}

// SplitUpdate changes the split selection, method or inputs
// @Summary Update the split selection
// @Tags Split
// @Accept json
// @Produce json
// @Success 200 {object} workspace.SplitState
// @Router /split [put]
func (serverHandler *ServerHandler) SplitUpdate(c echo.Context) error {
	var req splitRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	split := serverHandler.Workspace.Split
	if req.ID != nil {
		if *req.ID == "" {
			split.ClearSelection()
		} else {
			file, err := serverHandler.Library.Get(*req.ID)
			if err != nil {
				return apiError(c, err)
			}
			if err := split.Select(file); err != nil {
				return apiError(c, err)
			}
		}
	}
	if req.Method != nil {
		if err := split.SetMethod(pdfops.SplitMethod(*req.Method)); err != nil {
			return apiError(c, err)
		}
	}
	if req.RangesText != nil {
		split.SetRangesText(*req.RangesText)
	}
	if req.PagesPerFileText != nil {
		split.SetPagesPerFileText(*req.PagesPerFileText)
	}
	return c.JSON(http.StatusOK, split.State())
}

// SplitPreview opens the preview of the planned output files
func (serverHandler *ServerHandler) SplitPreview(c echo.Context) error {
	req, err := serverHandler.Workspace.Split.Preview()
	if err != nil {
		return apiError(c, err)
	}
	serverHandler.Workspace.OpenPreview(req)
	return serverHandler.GetPreview(c)
}

// SplitRun splits the selected PDF as a background job
// @Summary Split the selected PDF
// @Tags Split
// @Produce json
// @Success 202 {object} database.Job
// @Failure 400 {object} map[string]interface{} "No PDF selected or invalid ranges"
// @Router /split/run [post]
func (serverHandler *ServerHandler) SplitRun(c echo.Context) error {
	plan, err := serverHandler.Workspace.Split.Plan()
	if err != nil {
		return apiError(c, err)
	}
	selected, _ := serverHandler.Workspace.Split.Selected()
	message := fmt.Sprintf("Splitting %s into %d files", selected.Name, len(plan))
	job, err := serverHandler.startJob(database.JobTypeSplit, message, func(ctx context.Context, progress func(int, string)) (database.JobResult, error) {
		progress(10, message)
		files, err := serverHandler.Workspace.Split.Split(ctx)
		if err != nil {
			return database.JobResult{}, err
		}
		result := database.JobResult{}
		for _, f := range files {
			result.Outputs = append(result.Outputs, f.ID)
			result.Pages += f.PagesCount
		}
		return result, nil
	})
	if err != nil {
		return apiError(c, err)
	}
	return c.JSON(http.StatusAccepted, job)
}

func (serverHandler *ServerHandler) GetImages(c echo.Context) error {
	return c.JSON(http.StatusOK, serverHandler.Workspace.Images.State())
}

// ImagesUpload stores picked images and appends them to the Images tab
// @Summary Upload images
// @Tags Images
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Image file (repeatable)"
// @Success 200 {object} workspace.ImagesState
// @Failure 400 {object} map[string]interface{} "Unsupported image"
// @Router /images [post]
func (serverHandler *ServerHandler) ImagesUpload(c echo.Context) error {
	headers, err := formFiles(c)
	if err != nil {
		return badRequest(c, err.Error())
	}
	dir := filepath.Join(serverHandler.ServerConfig.UploadPath, "images")
	paths := make([]string, 0, len(headers))
	// a rejected batch leaves nothing behind in the upload folder
	discard := func() {
		for _, path := range paths {
			os.Remove(path)
		}
	}
	for _, header := range headers {
		path, err := saveUpload(header, dir)
		if err != nil {
			discard()
			return apiError(c, err)
		}
		paths = append(paths, path)
		mtype, err := mimetype.DetectFile(path)
		if err != nil || !mimetype.EqualsAny(mtype.String(), imageTypes...) {
			discard()
			return badRequest(c, fmt.Sprintf("%s is not a PNG, JPEG or TIFF image", header.Filename))
		}
	}
	if _, err := serverHandler.Workspace.Images.Add(paths...); err != nil {
		discard()
		return badRequest(c, err.Error())
	}
	return c.JSON(http.StatusOK, serverHandler.Workspace.Images.State())
}

func (serverHandler *ServerHandler) ImagesRemove(c echo.Context) error {
	if err := serverHandler.Workspace.Images.Remove(c.Param("id")); err != nil {
		return apiError(c, err)
	}
	return c.JSON(http.StatusOK, serverHandler.Workspace.Images.State())
}

func (serverHandler *ServerHandler) ImagesClear(c echo.Context) error {
	serverHandler.Workspace.Images.Clear()
	return c.JSON(http.StatusOK, serverHandler.Workspace.Images.State())
}

func (serverHandler *ServerHandler) ImagesMove(c echo.Context) error {
	var req moveRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if err := serverHandler.Workspace.Images.Move(req.From, req.To); err != nil {
		return apiError(c, err)
	}
	return c.JSON(http.StatusOK, serverHandler.Workspace.Images.State())
}

// ImagesConvert turns the images into a PDF as a background job
// @Summary Convert images to PDF
// @Tags Images
// @Produce json
// @Success 202 {object} database.Job
// @Router /images/convert [post]
func (serverHandler *ServerHandler) ImagesConvert(c echo.Context) error {
	count := serverHandler.Workspace.Images.SelectedCount()
	if count == 0 {
		return apiError(c, fmt.Errorf("%w: no images", workspace.ErrNoSelection))
	}
	message := fmt.Sprintf("Converting %d images", count)
	job, err := serverHandler.startJob(database.JobTypeImages, message, func(ctx context.Context, progress func(int, string)) (database.JobResult, error) {
		progress(10, message)
		file, err := serverHandler.Workspace.Images.Convert(ctx)
		if err != nil {
			return database.JobResult{}, err
		}
		return database.JobResult{Outputs: []string{file.ID}, Pages: file.PagesCount}, nil
	})
	if err != nil {
		return apiError(c, err)
	}
	return c.JSON(http.StatusAccepted, job)
}

// GetPreview returns the open preview with its pages, or 404 when none is open
// @Summary Get the open preview
// @Tags Preview
// @Produce json
// @Success 200 {object} workspace.PreviewState
// @Router /preview [get]
func (serverHandler *ServerHandler) GetPreview(c echo.Context) error {
	req, ok := serverHandler.Workspace.Preview()
	if !ok {
		return c.JSON(http.StatusNotFound, map[string]interface{}{
			"error": "No preview open",
		})
	}
	return c.JSON(http.StatusOK, req.State())
}

// OpenPreview opens the single document preview for a PDF
func (serverHandler *ServerHandler) OpenPreview(c echo.Context) error {
	file, err := serverHandler.Library.Get(c.Param("id"))
	if err != nil {
		return apiError(c, err)
	}
	serverHandler.Workspace.OpenPreview(workspace.SinglePreview(file))
	return serverHandler.GetPreview(c)
}

func (serverHandler *ServerHandler) ClosePreview(c echo.Context) error {
	serverHandler.Workspace.ClosePreview()
	return serverHandler.workspaceState(c)
}

func (serverHandler *ServerHandler) CloseDetails(c echo.Context) error {
	serverHandler.Workspace.CloseDetails()
	return serverHandler.workspaceState(c)
}

// GetSettings returns the Settings tab toggles
// @Summary Get settings
// @Tags Settings
// @Produce json
// @Success 200 {object} database.Settings
// @Router /settings [get]
func (serverHandler *ServerHandler) GetSettings(c echo.Context) error {
	return c.JSON(http.StatusOK, serverHandler.Workspace.Settings.Get())
}

// UpdateSettings replaces the Settings tab toggles
// @Summary Update settings
// @Tags Settings
// @Accept json
// @Produce json
// @Success 200 {object} database.Settings
// @Router /settings [put]
func (serverHandler *ServerHandler) UpdateSettings(c echo.Context) error {
	next := serverHandler.Workspace.Settings.Get()
	if err := c.Bind(&next); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if err := serverHandler.Workspace.Settings.Update(next); err != nil {
		return apiError(c, err)
	}
	return c.JSON(http.StatusOK, serverHandler.Workspace.Settings.Get())
}

// DrainToasts returns and clears the pending toasts
// @Summary Drain toasts
// @Tags Workspace
// @Produce json
// @Success 200 {array} toast.Message
// @Router /toasts [get]
func (serverHandler *ServerHandler) DrainToasts(c echo.Context) error {
	return c.JSON(http.StatusOK, serverHandler.Workspace.Toasts.Drain())
}
