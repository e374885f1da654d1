// Package runner wires the tailer, the record parser, the point index and the
// database into the streaming ingestion pipeline.
package runner

import (
	"context"
	"sync"
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/aukilabs/jord/database"
	"github.com/aukilabs/jord/models"
	"github.com/aukilabs/jord/pointindex"
	"github.com/aukilabs/jord/record"
	"github.com/aukilabs/jord/tailer"
	"github.com/google/uuid"
)

const (
	queueCapacity = 8192

	batchSize     = 500
	batchInterval = 200 * time.Millisecond

	savePollInterval = 500 * time.Millisecond

	// while there are unsaved mutations, a save happens once they have
	// quiesced for quiesceInterval and the last save is at least
	// minSaveInterval old, or regardless of quiescence when the last save is
	// maxSaveInterval old; a clean state is never saved by the poll
	quiesceInterval = time.Second
	minSaveInterval = 5 * time.Second
	maxSaveInterval = 30 * time.Second
)

// Runner ingests the scan log into the database until cancelled.
type Runner struct {
	DatabasePath     string
	LogPath          string
	MinMergeDistance float64
	StartAtBeginning bool

	runID string

	mu           sync.Mutex
	index        *pointindex.Index
	rays         []models.Ray
	dirty        bool
	lastMutation time.Time
	lastSave     time.Time

	processedLines int
	baselineLines  int
	acceptedPoints int
	rejectedPoints int
}

// Status is a point-in-time snapshot of the ingestion state.
type Status struct {
	RunID          string    `json:"run_id"`
	Points         int       `json:"points"`
	Rays           int       `json:"rays"`
	ProcessedLines int       `json:"processed_lines"`
	BaselineLines  int       `json:"baseline_lines"`
	AcceptedPoints int       `json:"accepted_points"`
	RejectedPoints int       `json:"rejected_points"`
	Dirty          bool      `json:"dirty"`
	LastSave       time.Time `json:"last_save"`
}

// Run loads the database, tails the log and persists mutations until ctx is
// cancelled. On cancellation the pending batch is drained and a final save is
// forced.
func (r *Runner) Run(ctx context.Context) error {
	r.runID = uuid.NewString()

	db, err := database.Load(r.DatabasePath)
	if err != nil {
		logs.Warn(errors.New("loading database failed, starting fresh").
			WithTag("run_id", r.runID).
			WithTag("path", r.DatabasePath).
			Wrap(err))
		db = &database.Database{}
	}

	r.mu.Lock()
	r.index = pointindex.NewFromPoints(r.MinMergeDistance, db.Points)
	r.rays = db.Rays
	r.lastSave = time.Now()
	r.mu.Unlock()

	logs.WithTag("run_id", r.runID).
		WithTag("db", r.DatabasePath).
		WithTag("log", r.LogPath).
		WithTag("points", len(db.Points)).
		WithTag("rays", len(db.Rays)).
		Info("starting ingestion")

	events := make(chan tailer.Event, queueCapacity)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		tl := &tailer.Tailer{
			Path:             r.LogPath,
			StartAtBeginning: r.StartAtBeginning,
		}
		tl.Run(ctx, events)
	}()
	go func() {
		defer wg.Done()
		r.runSaver(ctx)
	}()

	r.consume(events)
	wg.Wait()

	if err := r.save(true); err != nil {
		logs.Error(errors.New("final save failed").
			WithTag("run_id", r.runID).
			Wrap(err))
	}

	status := r.Status()
	logs.WithTag("run_id", r.runID).
		WithTag("points", status.Points).
		WithTag("rays", status.Rays).
		WithTag("processed_lines", status.ProcessedLines).
		Info("ingestion stopped")

	return nil
}

// Snapshot returns the accumulated points and rays, for meshing after the
// ingestion has stopped.
func (r *Runner) Snapshot() ([]*models.Vertex, []models.Ray) {
	r.mu.Lock()
	defer r.mu.Unlock()

	points := append([]*models.Vertex(nil), r.index.Points()...)
	rays := append([]models.Ray(nil), r.rays...)
	return points, rays
}

func (r *Runner) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()

	return Status{
		RunID:          r.runID,
		Points:         r.index.Len(),
		Rays:           len(r.rays),
		ProcessedLines: r.processedLines,
		BaselineLines:  r.baselineLines,
		AcceptedPoints: r.acceptedPoints,
		RejectedPoints: r.rejectedPoints,
		Dirty:          r.dirty,
		LastSave:       r.lastSave,
	}
}

// consume reads tailer events until the channel closes, batching parsed
// records to keep mutex traffic low.
func (r *Runner) consume(events <-chan tailer.Event) {
	var hits []*models.Vertex
	var rays []models.Ray

	ticker := time.NewTicker(batchInterval)
	defer ticker.Stop()

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				r.flush(&hits, &rays)
				return
			}

			r.handleEvent(ev, &hits, &rays)
			if len(hits)+len(rays) >= batchSize {
				r.flush(&hits, &rays)
			}

		case <-ticker.C:
			r.flush(&hits, &rays)
		}
	}
}

func (r *Runner) handleEvent(ev tailer.Event, hits *[]*models.Vertex, rays *[]models.Ray) {
	if ev.IsReset() {
		logs.WithTag("run_id", r.runID).
			WithTag("reason", ev.Reset.String()).
			Info("log file reset")

		baseline := 0
		if n, err := tailer.CountLines(r.LogPath); err == nil {
			baseline = n
		}

		r.mu.Lock()
		r.processedLines = 0
		r.baselineLines = baseline
		r.mu.Unlock()
		return
	}

	instrumentLine()

	r.mu.Lock()
	r.processedLines++
	r.mu.Unlock()

	rec, ok := record.Parse(ev.Line)
	if !ok {
		return
	}

	if rec.Hit != nil {
		*hits = append(*hits, rec.Hit)
	}
	if rec.Miss != nil {
		*rays = append(*rays, *rec.Miss)
	}
}

func (r *Runner) flush(hits *[]*models.Vertex, rays *[]models.Ray) {
	if len(*hits) == 0 && len(*rays) == 0 {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	accepted := r.index.AddRange(*hits)
	rejected := len(*hits) - accepted
	r.acceptedPoints += accepted
	r.rejectedPoints += rejected
	r.rays = append(r.rays, *rays...)

	instrumentFlush(accepted, rejected, len(*rays))

	r.dirty = true
	r.lastMutation = time.Now()

	*hits = (*hits)[:0]
	*rays = (*rays)[:0]
}

func (r *Runner) runSaver(ctx context.Context) {
	ticker := time.NewTicker(savePollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-ticker.C:
			if err := r.save(false); err != nil {
				logs.Warn(errors.New("saving database failed").
					WithTag("run_id", r.runID).
					WithTag("path", r.DatabasePath).
					Wrap(err))
			}
		}
	}
}

// save persists the master lists. Without force it applies the debounce
// policy and may do nothing.
func (r *Runner) save(force bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !force {
		if !r.dirty {
			return nil
		}

		now := time.Now()
		quiet := now.Sub(r.lastMutation) >= quiesceInterval &&
			now.Sub(r.lastSave) >= minSaveInterval
		overdue := now.Sub(r.lastSave) >= maxSaveInterval
		if !quiet && !overdue {
			return nil
		}
	}

	db := &database.Database{Points: r.index.Points(), Rays: r.rays}
	if err := db.Save(r.DatabasePath); err != nil {
		return err
	}

	r.dirty = false
	r.lastSave = time.Now()
	instrumentSave()
	return nil
}
