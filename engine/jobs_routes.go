package engine

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/oklog/ulid/v2"

	"github.com/drummonds/pdfmanager/database"
)

const (
	defaultJobLimit = 20
	maxJobLimit     = 100
)

// filterJobs keeps the jobs of one type; an empty type keeps everything
func filterJobs(jobs []database.Job, jobType string) []database.Job {
	filtered := make([]database.Job, 0, len(jobs))
	for _, job := range jobs {
		if jobType == "" || string(job.Type) == jobType {
			filtered = append(filtered, job)
		}
	}
	return filtered
}

// GetJob returns one job with its progress and, once finished, its result
// @Summary Get job by ID
// @Description Retrieve a merge, split, conversion or scan job by its ULID
// @Tags Jobs
// @Produce json
// @Param id path string true "Job ID (ULID)"
// @Success 200 {object} database.Job "Job details"
// @Failure 400 {object} map[string]interface{} "Invalid job ID"
// @Failure 404 {object} map[string]interface{} "Job not found"
// @Router /jobs/{id} [get]
func (serverHandler *ServerHandler) GetJob(c echo.Context) error {
	jobID, err := ulid.Parse(c.Param("id"))
	if err != nil {
		return badRequest(c, "Invalid job ID format")
	}

	job, err := serverHandler.DB.GetJob(jobID)
	if err != nil {
		return apiError(c, err)
	}
	return c.JSON(http.StatusOK, job)
}

// GetRecentJobs lists PDF jobs newest first, optionally of one type
// @Summary Get recent jobs
// @Description Retrieve recent PDF jobs with pagination
// @Tags Jobs
// @Produce json
// @Param limit query int false "Number of jobs to return (default: 20, max: 100)"
// @Param offset query int false "Offset for pagination (default: 0)"
// @Param type query string false "Only jobs of this type, e.g. merge"
// @Success 200 {array} database.Job "List of jobs"
// @Failure 400 {object} map[string]interface{} "Invalid query"
// @Router /jobs [get]
func (serverHandler *ServerHandler) GetRecentJobs(c echo.Context) error {
	limit, offset := defaultJobLimit, 0
	var jobType string
	err := echo.QueryParamsBinder(c).
		Int("limit", &limit).
		Int("offset", &offset).
		String("type", &jobType).
		BindError()
	if err != nil {
		return badRequest(c, "Invalid limit or offset")
	}
	if jobType != "" && !database.JobType(jobType).Valid() {
		return badRequest(c, "Unknown job type "+jobType)
	}
	if limit < 1 || limit > maxJobLimit {
		limit = defaultJobLimit
	}
	offset = max(offset, 0)

	jobs, err := serverHandler.DB.GetRecentJobs(limit, offset)
	if err != nil {
		return apiError(c, err)
	}
	return c.JSON(http.StatusOK, filterJobs(jobs, jobType))
}

// GetActiveJobs lists the jobs still pending or running; the UI polls it for
// the navbar counter
// @Summary Get active jobs
// @Tags Jobs
// @Produce json
// @Param type query string false "Only jobs of this type"
// @Success 200 {array} database.Job "List of active jobs"
// @Router /jobs/active [get]
func (serverHandler *ServerHandler) GetActiveJobs(c echo.Context) error {
	jobs, err := serverHandler.DB.GetActiveJobs()
	if err != nil {
		return apiError(c, err)
	}
	return c.JSON(http.StatusOK, filterJobs(jobs, c.QueryParam("type")))
}

// RunScanNow rescans the library folders without waiting for the schedule
// @Summary Rescan library folders
// @Tags Jobs
// @Produce json
// @Success 202 {object} database.Job "Scan job"
// @Router /jobs/scan [post]
func (serverHandler *ServerHandler) RunScanNow(c echo.Context) error {
	job, err := serverHandler.startJob(database.JobTypeScan, "Scanning library", serverHandler.scanJobFunc)
	if err != nil {
		return apiError(c, err)
	}
	return c.JSON(http.StatusAccepted, job)
}
