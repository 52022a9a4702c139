package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/pushp314/qrtrack-backend/internal/models"
	"github.com/pushp314/qrtrack-backend/pkg/logger"
	"github.com/pushp314/qrtrack-backend/pkg/utils"
)

// Raw user agents are capped before persisting; anything longer is noise
const maxUserAgentLength = 500

// ScanTask is one deferred scan-statistics unit of work. It carries
// everything the recorder needs so nothing references the request object
// after the response has been sent.
type ScanTask struct {
	QRID         string
	Timestamp    time.Time
	ClientIP     string
	RawUserAgent string
	IsGenuine    bool
}

// ScanRecorder drains a bounded queue of ScanTasks on a small worker pool.
// Its lifecycle is independent of any HTTP request: failures are logged and
// dropped, never surfaced to a client, because the redirect response has
// already gone out by the time a task runs.
type ScanRecorder struct {
	store   *RecordStore
	tasks   chan ScanTask
	wg      sync.WaitGroup
	workers int

	closeOnce sync.Once
}

func NewScanRecorder(store *RecordStore, queueSize, workers int) *ScanRecorder {
	if queueSize <= 0 {
		queueSize = 1024
	}
	if workers <= 0 {
		workers = 4
	}
	return &ScanRecorder{
		store:   store,
		tasks:   make(chan ScanTask, queueSize),
		workers: workers,
	}
}

// Start launches the worker pool
func (r *ScanRecorder) Start() {
	for i := 0; i < r.workers; i++ {
		r.wg.Add(1)
		go func() {
			defer r.wg.Done()
			for task := range r.tasks {
				r.record(task)
			}
		}()
	}
	logger.Info().Int("workers", r.workers).Int("queue", cap(r.tasks)).Msg("Scan recorder started")
}

// Enqueue hands a task to the pool without blocking the caller. A full queue
// drops the task (counters lose one scan, the redirect already succeeded).
func (r *ScanRecorder) Enqueue(task ScanTask) bool {
	select {
	case r.tasks <- task:
		return true
	default:
		logger.Warn().Str("qr_id", task.QRID).Msg("Scan queue full, dropping scan record")
		return false
	}
}

// Shutdown stops intake and waits for queued tasks to drain, up to the
// context deadline.
func (r *ScanRecorder) Shutdown(ctx context.Context) {
	r.closeOnce.Do(func() { close(r.tasks) })

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logger.Info().Msg("Scan recorder drained")
	case <-ctx.Done():
		logger.Warn().Msg("Scan recorder shutdown timed out, pending scans dropped")
	}
}

// record is the task body. Every failure path ends at the logging layer:
// there is no caller waiting, and a panic here must not take the server down.
func (r *ScanRecorder) record(task ScanTask) {
	defer func() {
		if rec := recover(); rec != nil {
			logger.Error().
				Str("panic", fmt.Sprintf("%v", rec)).
				Str("qr_id", task.QRID).
				Msg("Panic recovered in scan recorder")
		}
	}()

	ts := task.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	info := Classify(task.RawUserAgent)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := r.store.AtomicIncrementScan(ctx, task.QRID, ts, task.IsGenuine); err != nil {
		// Not-found is expected when the code was deleted between the
		// redirect and this task; anything else already exhausted retries.
		if errors.Is(err, ErrRecordNotFound) {
			logger.Warn().Str("qr_id", task.QRID).Msg("Scan recorded for missing QR code, skipping")
		} else {
			logger.Error().Err(err).Str("qr_id", task.QRID).Msg("Failed to increment scan counters")
		}
		return
	}

	entry := &models.ScanLog{
		QRCodeID:       task.QRID,
		ScannedAt:      ts,
		IPAddress:      task.ClientIP,
		RawUserAgent:   utils.TruncateString(task.RawUserAgent, maxUserAgentLength),
		IsGenuineScan:  task.IsGenuine,
		DeviceFamily:   info.DeviceFamily,
		OSFamily:       info.OSFamily,
		OSVersion:      info.OSVersion,
		BrowserFamily:  info.BrowserFamily,
		BrowserVersion: info.BrowserVersion,
		IsMobile:       info.IsMobile,
		IsTablet:       info.IsTablet,
		IsPC:           info.IsPC,
		IsBot:          info.IsBot,
	}

	if err := r.store.InsertScanLog(ctx, entry); err != nil {
		// The counter increment above is already committed and stays that way
		logger.Error().Err(err).Str("qr_id", task.QRID).Msg("Failed to insert scan log")
	}
}
