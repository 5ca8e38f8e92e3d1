package shared

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// IngestionMetrics tracks outcomes of dividend refresh cycles. The refresh
// job records per-cycle results; the health endpoint exposes a snapshot.
type IngestionMetrics struct {
	CyclesStarted     int64         `json:"cycles_started"`
	CyclesCompleted   int64         `json:"cycles_completed"`
	CyclesAborted     int64         `json:"cycles_aborted"`
	CompaniesScraped  int64         `json:"companies_scraped"`
	CompaniesFailed   int64         `json:"companies_failed"`
	DividendsInserted int64         `json:"dividends_inserted"`
	LastCycleStarted  time.Time     `json:"last_cycle_started"`
	LastCycleDuration time.Duration `json:"last_cycle_duration"`
	mutex             sync.RWMutex
}

// NewIngestionMetrics creates a metrics tracker for the refresh job
func NewIngestionMetrics() *IngestionMetrics {
	return &IngestionMetrics{}
}

// RecordCycleStart marks the beginning of a refresh cycle
func (m *IngestionMetrics) RecordCycleStart() {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.CyclesStarted++
	m.LastCycleStarted = time.Now()
}

// RecordCycleEnd marks the end of a refresh cycle and its per-company tallies
func (m *IngestionMetrics) RecordCycleEnd(completed bool, scraped, failed, inserted int) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if completed {
		m.CyclesCompleted++
	} else {
		m.CyclesAborted++
	}
	m.CompaniesScraped += int64(scraped)
	m.CompaniesFailed += int64(failed)
	m.DividendsInserted += int64(inserted)
	m.LastCycleDuration = time.Since(m.LastCycleStarted)
}

// Snapshot returns a copy of the current metrics for serialization
func (m *IngestionMetrics) Snapshot() map[string]interface{} {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	return map[string]interface{}{
		"cycles_started":      m.CyclesStarted,
		"cycles_completed":    m.CyclesCompleted,
		"cycles_aborted":      m.CyclesAborted,
		"companies_scraped":   m.CompaniesScraped,
		"companies_failed":    m.CompaniesFailed,
		"dividends_inserted":  m.DividendsInserted,
		"last_cycle_started":  m.LastCycleStarted,
		"last_cycle_duration": m.LastCycleDuration.String(),
	}
}

// LogSummary logs the cumulative ingestion metrics
func (m *IngestionMetrics) LogSummary() {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	logrus.WithFields(logrus.Fields{
		"cycles_started":     m.CyclesStarted,
		"cycles_completed":   m.CyclesCompleted,
		"cycles_aborted":     m.CyclesAborted,
		"companies_scraped":  m.CompaniesScraped,
		"companies_failed":   m.CompaniesFailed,
		"dividends_inserted": m.DividendsInserted,
	}).Info("Ingestion metrics summary")
}
