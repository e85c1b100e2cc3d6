package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/labstack/echo/v4"
	"github.com/oklog/ulid/v2"

	"github.com/drummonds/pdfmanager/config"
	"github.com/drummonds/pdfmanager/database"
	"github.com/drummonds/pdfmanager/engine/pdfrenderer"
	"github.com/drummonds/pdfmanager/pagecache"
	"github.com/drummonds/pdfmanager/pdf"
	"github.com/drummonds/pdfmanager/pdfops"
	"github.com/drummonds/pdfmanager/workspace"
)

// ServerHandler will inject the variables needed into routes
type ServerHandler struct {
	DB           database.Repository
	Echo         *echo.Echo
	ServerConfig config.ServerConfig

	Renderer  pdfrenderer.Renderer
	Cache     *pagecache.Cache
	Library   *pdf.Library
	Workspace *workspace.Workspace

	// jobs run on ctx so Close can stop them; closed is guarded by jobsMu
	// so no job is added once Close waits
	ctx    context.Context
	cancel context.CancelFunc
	jobs   sync.WaitGroup
	jobsMu sync.Mutex
	closed bool
}

// ErrShuttingDown is returned for jobs requested after Close began
var ErrShuttingDown = errors.New("server is shutting down")

// NewServerHandler wires the renderer, render cache, library and workspace
// for serverConfig. A nil renderer is created from serverConfig.Renderer.
func NewServerHandler(db database.Repository, e *echo.Echo, serverConfig config.ServerConfig, renderer pdfrenderer.Renderer) (*ServerHandler, error) {
	if renderer == nil {
		var err error
		renderer, err = pdfrenderer.NewRenderer(serverConfig.Renderer)
		if err != nil {
			return nil, err
		}
	}
	cache := pagecache.New(renderer, pagecache.WithMaxDocuments(serverConfig.RenderCacheMax))
	library := pdf.NewLibrary(pdf.LibraryConfig{
		Roots:    serverConfig.LibraryPaths,
		Workers:  serverConfig.ScanWorkers,
		Renderer: renderer,
		DB:       db,
		Cache:    cache,
	})
	ctx, cancel := context.WithCancel(context.Background())
	serverHandler := &ServerHandler{
		DB:           db,
		Echo:         e,
		ServerConfig: serverConfig,
		Renderer:     renderer,
		Cache:        cache,
		Library:      library,
		Workspace: workspace.New(workspace.Config{
			Library:    library,
			DB:         db,
			OutputDir:  serverConfig.OutputPath,
			ToastLimit: 50,
		}),
		ctx:    ctx,
		cancel: cancel,
	}
	return serverHandler, nil
}

// Close cancels running jobs, waits for them, then releases every renderer session
func (serverHandler *ServerHandler) Close() error {
	serverHandler.jobsMu.Lock()
	if serverHandler.closed {
		serverHandler.jobsMu.Unlock()
		return nil
	}
	serverHandler.closed = true
	serverHandler.jobsMu.Unlock()

	serverHandler.cancel()
	serverHandler.jobs.Wait()
	serverHandler.Workspace.Close()
	serverHandler.Cache.CloseAll()
	return serverHandler.Renderer.Close()
}

// trackJob counts a new job for Close to wait on, refusing once closed
func (serverHandler *ServerHandler) trackJob() bool {
	serverHandler.jobsMu.Lock()
	defer serverHandler.jobsMu.Unlock()
	if serverHandler.closed {
		return false
	}
	serverHandler.jobs.Add(1)
	return true
}

// jobFunc does the work of a tracked job. progress reports a percentage and a
// human readable step.
type jobFunc func(ctx context.Context, progress func(percent int, step string)) (database.JobResult, error)

// startJob records a job and runs fn in the background with panic recovery.
// The returned job is in the pending state.
func (serverHandler *ServerHandler) startJob(jobType database.JobType, message string, fn jobFunc) (*database.Job, error) {
	if !serverHandler.trackJob() {
		return nil, ErrShuttingDown
	}
	job, err := serverHandler.DB.CreateJob(jobType, message)
	if err != nil {
		serverHandler.jobs.Done()
		return nil, fmt.Errorf("unable to create %s job: %w", jobType, err)
	}
	go func() {
		defer serverHandler.jobs.Done()
		serverHandler.runJob(job.ID, jobType, message, fn)
	}()
	return job, nil
}

func (serverHandler *ServerHandler) runJob(jobID ulid.ULID, jobType database.JobType, message string, fn jobFunc) {
	db := serverHandler.DB
	defer func() {
		if r := recover(); r != nil {
			Logger.Error("Panic recovered in job", "panic", r, "jobID", jobID, "type", jobType)
			db.UpdateJobError(jobID, fmt.Sprintf("Panic: %v", r))
			serverHandler.notify(fmt.Sprintf("%s failed", message))
		}
	}()

	if err := db.UpdateJobStatus(jobID, database.JobStatusRunning, message); err != nil {
		Logger.Error("Failed to update job status", "jobID", jobID, "error", err)
	}
	progress := func(percent int, step string) {
		if err := db.UpdateJobProgress(jobID, percent, step); err != nil {
			Logger.Warn("Failed to update job progress", "jobID", jobID, "error", err)
		}
	}

	result, err := fn(serverHandler.ctx, progress)
	if err != nil {
		Logger.Error("Job failed", "jobID", jobID, "type", jobType, "error", err)
		if errors.Is(err, context.Canceled) {
			db.UpdateJobStatus(jobID, database.JobStatusCancelled, "Cancelled")
			return
		}
		db.UpdateJobError(jobID, err.Error())
		serverHandler.notify(fmt.Sprintf("%s failed: %v", message, err))
		return
	}

	if result.Outputs == nil {
		result.Outputs = []string{}
	}
	resultJSON, err := json.Marshal(result)
	if err != nil {
		resultJSON = []byte("{}")
	}
	if err := db.CompleteJob(jobID, string(resultJSON)); err != nil {
		Logger.Error("Failed to mark job as complete", "jobID", jobID, "error", err)
	}
	if err := serverHandler.Workspace.List.Refresh(); err != nil {
		Logger.Warn("Unable to refresh PDF list after job", "jobID", jobID, "error", err)
	}
	Logger.Info("Job completed", "jobID", jobID, "type", jobType, "outputs", len(result.Outputs))
	serverHandler.notify(fmt.Sprintf("%s finished", message))
}

// notify raises a toast unless the user turned notifications off
func (serverHandler *ServerHandler) notify(message string) {
	if serverHandler.Workspace.Settings.Notifications() {
		serverHandler.Workspace.Toasts.Push(message)
	}
}

// scanJobFunc rescans the library folders into the PDF list
func (serverHandler *ServerHandler) scanJobFunc(ctx context.Context, progress func(int, string)) (database.JobResult, error) {
	progress(10, "Scanning library folders")
	if err := serverHandler.Workspace.List.LoadAll(ctx); err != nil {
		return database.JobResult{}, err
	}
	files := serverHandler.Workspace.List.Files()
	return database.JobResult{Details: fmt.Sprintf("%d PDFs indexed", len(files))}, nil
}

// jobCleanupFunc removes finished jobs older than the retention period
func (serverHandler *ServerHandler) jobCleanupFunc(ctx context.Context, progress func(int, string)) (database.JobResult, error) {
	retention := serverHandler.retention()
	progress(50, "Removing old jobs")
	removed, err := serverHandler.DB.DeleteOldJobs(retention)
	if err != nil {
		return database.JobResult{}, err
	}
	return database.JobResult{Details: fmt.Sprintf("%d jobs removed", removed)}, nil
}

// errorStatus maps domain errors onto HTTP status codes
func errorStatus(err error) int {
	switch {
	case errors.Is(err, database.ErrNotFound),
		errors.Is(err, workspace.ErrNotFound),
		errors.Is(err, pagecache.ErrPageOutOfRange):
		return http.StatusNotFound
	case errors.Is(err, pdfrenderer.ErrPasswordRequired),
		errors.Is(err, workspace.ErrLocked):
		return http.StatusLocked
	case errors.Is(err, pdf.ErrExists),
		errors.Is(err, pdfops.ErrOutputExists),
		errors.Is(err, workspace.ErrBusy):
		return http.StatusConflict
	case errors.Is(err, pdf.ErrInvalidName),
		errors.Is(err, pdf.ErrUnsupportedURI),
		errors.Is(err, pdfops.ErrInvalidRange),
		errors.Is(err, pdfops.ErrInvalidMethod),
		errors.Is(err, pdfops.ErrInvalidOrder),
		errors.Is(err, pdfops.ErrNotEnoughInputs),
		errors.Is(err, pdfops.ErrNoImages),
		errors.Is(err, pdfops.ErrWrongPassword),
		errors.Is(err, pdfops.ErrEmptyPassword),
		errors.Is(err, workspace.ErrIndexOutOfRange),
		errors.Is(err, workspace.ErrNoSelection),
		errors.Is(err, workspace.ErrUnknownOption),
		errors.Is(err, workspace.ErrUnknownTab):
		return http.StatusBadRequest
	case errors.Is(err, ErrShuttingDown):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// apiError writes err as {"error": ...} with the status errorStatus picks
func apiError(c echo.Context, err error) error {
	status := errorStatus(err)
	if status == http.StatusInternalServerError {
		Logger.Error("Request failed", "path", c.Request().URL.Path, "error", err)
	}
	return c.JSON(status, map[string]interface{}{
		"error": err.Error(),
	})
}

func badRequest(c echo.Context, message string) error {
	return c.JSON(http.StatusBadRequest, map[string]interface{}{
		"error": message,
	})
}
