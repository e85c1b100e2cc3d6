package engine

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/drummonds/pdfmanager/database"
)

// Logger is global since we will need it everywhere
var Logger = slog.Default()

const defaultJobRetention = 72 * time.Hour

// retention is how long finished jobs are kept
func (serverHandler *ServerHandler) retention() time.Duration {
	if serverHandler.ServerConfig.JobRetentionHours <= 0 {
		return defaultJobRetention
	}
	return time.Duration(serverHandler.ServerConfig.JobRetentionHours) * time.Hour
}

// scheduledJob wraps a jobFunc so cron runs it as a tracked job and waits for it
func (serverHandler *ServerHandler) scheduledJob(jobType database.JobType, message string, fn jobFunc) cron.Job {
	return cron.FuncJob(func() {
		if !serverHandler.trackJob() {
			return
		}
		defer serverHandler.jobs.Done()
		job, err := serverHandler.DB.CreateJob(jobType, message)
		if err != nil {
			Logger.Error("Unable to create scheduled job", "type", jobType, "error", err)
			return
		}
		serverHandler.runJob(job.ID, jobType, message, fn)
	})
}

// InitializeSchedules scans the library at startup, then rescans every
// ScanInterval minutes and prunes old jobs hourly. The returned cron is
// already started.
func (serverHandler *ServerHandler) InitializeSchedules() *cron.Cron {
	interval := serverHandler.ServerConfig.ScanInterval
	if interval <= 0 {
		interval = 10
	}

	// skip a tick if the previous run is still going
	chain := cron.NewChain(cron.SkipIfStillRunning(cron.DefaultLogger))
	scanJob := chain.Then(serverHandler.scheduledJob(database.JobTypeScan, "Scanning library", serverHandler.scanJobFunc))
	cleanupJob := chain.Then(serverHandler.scheduledJob(database.JobTypeJobCleanup, "Removing old jobs", serverHandler.jobCleanupFunc))

	Logger.Info("Running library scan at startup")
	go scanJob.Run()

	c := cron.New()
	if _, err := c.AddJob(fmt.Sprintf("@every %dm", interval), scanJob); err != nil {
		Logger.Error("Unable to schedule library scan", "error", err)
	}
	if _, err := c.AddJob("@hourly", cleanupJob); err != nil {
		Logger.Error("Unable to schedule job cleanup", "error", err)
	}
	Logger.Info("Library scan scheduled", "interval_minutes", interval, "job_retention", serverHandler.retention())
	c.Start()
	return c
}
