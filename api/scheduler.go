/*
scheduler.go - Periodic report snapshots

PURPOSE:
  Writes a CSV export of the unfiltered report to a directory at a fixed
  interval, so there is a dated trail of commission totals without anyone
  pressing the download button.

DESIGN:
  - Runs a background goroutine with a configurable interval
  - Takes one snapshot immediately on start
  - Each snapshot is a new file named by export.Filename; nothing is
    overwritten unless two runs land in the same minute

CONFIGURATION:
  - Dir:      Target directory (created if missing)
  - Interval: Time between snapshots (default: 24 hours)
  - Enabled:  Whether the scheduler is active (default: true)

USAGE:
  scheduler := NewExportScheduler(source, "/var/exports")
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - handlers.go: ExportReport endpoint (on-demand downloads)
  - export/csv.go: the CSV layout
*/
package api

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/warp/agency-reports/commission"
	"github.com/warp/agency-reports/export"
	"github.com/warp/agency-reports/generic"
)

// ExportScheduler writes periodic CSV snapshots.
type ExportScheduler struct {
	Source   commission.RecordSource
	Dir      string
	Interval time.Duration
	Enabled  bool
	Currency export.CurrencyFormatter
	Clock    generic.Clock

	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewExportScheduler creates a scheduler writing into dir.
func NewExportScheduler(source commission.RecordSource, dir string) *ExportScheduler {
	return &ExportScheduler{
		Source:   source,
		Dir:      dir,
		Interval: 24 * time.Hour,
		Enabled:  true,
		Currency: export.DefaultCurrency,
		Clock:    generic.SystemClock,
	}
}

// Start begins the scheduler.
func (es *ExportScheduler) Start() {
	es.mu.Lock()
	defer es.mu.Unlock()

	if !es.Enabled || es.Dir == "" {
		log.Println("[Scheduler] Disabled, not starting")
		return
	}
	if es.ticker != nil {
		return
	}

	es.ticker = time.NewTicker(es.Interval)
	es.stop = make(chan struct{})
	es.wg.Add(1)

	go es.run(es.ticker, es.stop)

	log.Printf("[Scheduler] Started, writing to %s every %v", es.Dir, es.Interval)
}

// Stop stops the scheduler and waits for a running snapshot to finish.
func (es *ExportScheduler) Stop() {
	es.mu.Lock()
	defer es.mu.Unlock()

	if es.ticker != nil {
		es.ticker.Stop()
		close(es.stop)
		es.wg.Wait()
		es.ticker = nil
		log.Println("[Scheduler] Stopped")
	}
}

func (es *ExportScheduler) run(ticker *time.Ticker, stop <-chan struct{}) {
	defer es.wg.Done()

	es.snapshot()

	for {
		select {
		case <-ticker.C:
			es.snapshot()
		case <-stop:
			return
		}
	}
}

func (es *ExportScheduler) snapshot() {
	path, err := es.RunNow(context.Background())
	if err != nil {
		log.Printf("[Scheduler] Snapshot failed: %v", err)
		return
	}
	log.Printf("[Scheduler] Wrote %s", path)
}

// RunNow writes one snapshot and returns its path.
func (es *ExportScheduler) RunNow(ctx context.Context) (string, error) {
	records, err := es.Source.LoadRecords(ctx)
	if err != nil {
		return "", fmt.Errorf("load records: %w", err)
	}
	report := commission.Accumulate(records, commission.Filter{}, es.Clock())

	if err := os.MkdirAll(es.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}
	path := filepath.Join(es.Dir, export.Filename(export.FormatCSV, report.GeneratedAt))
	err = writeSnapshot(path, func(w io.Writer) error {
		return export.CSV(w, report, export.Options{Title: "Scheduled Commission Report", Currency: es.Currency})
	})
	if err != nil {
		return "", err
	}
	return path, nil
}

// writeSnapshot creates path and renders into it. A failed render leaves
// no file behind.
func writeSnapshot(path string, render func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create snapshot: %w", err)
	}
	if err := render(f); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return fmt.Errorf("close snapshot: %w", err)
	}
	return nil
}

