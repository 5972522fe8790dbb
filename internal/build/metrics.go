package build

import (
	"sync"
	"time"
)

// BuildMetrics tracks task performance across runs
type BuildMetrics struct {
	TotalTasks      int64
	SuccessfulTasks int64
	FailedTasks     int64
	AverageDuration time.Duration
	TotalDuration   time.Duration
	mutex           sync.RWMutex
}

// NewBuildMetrics creates a new build metrics tracker
func NewBuildMetrics() *BuildMetrics {
	return &BuildMetrics{}
}

// RecordTask records a task result in the metrics
func (bm *BuildMetrics) RecordTask(result TaskResult) {
	bm.mutex.Lock()
	defer bm.mutex.Unlock()

	bm.TotalTasks++
	bm.TotalDuration += result.Duration

	if result.Error != nil {
		bm.FailedTasks++
	} else {
		bm.SuccessfulTasks++
	}

	bm.AverageDuration = bm.TotalDuration / time.Duration(bm.TotalTasks)
}

// GetSnapshot returns a snapshot of current metrics
func (bm *BuildMetrics) GetSnapshot() BuildMetrics {
	bm.mutex.RLock()
	defer bm.mutex.RUnlock()
	return BuildMetrics{
		TotalTasks:      bm.TotalTasks,
		SuccessfulTasks: bm.SuccessfulTasks,
		FailedTasks:     bm.FailedTasks,
		AverageDuration: bm.AverageDuration,
		TotalDuration:   bm.TotalDuration,
	}
}

// Reset resets all metrics
func (bm *BuildMetrics) Reset() {
	bm.mutex.Lock()
	defer bm.mutex.Unlock()

	bm.TotalTasks = 0
	bm.SuccessfulTasks = 0
	bm.FailedTasks = 0
	bm.AverageDuration = 0
	bm.TotalDuration = 0
}

// GetSuccessRate returns the success rate as a percentage
func (bm *BuildMetrics) GetSuccessRate() float64 {
	bm.mutex.RLock()
	defer bm.mutex.RUnlock()

	if bm.TotalTasks == 0 {
		return 0.0
	}

	return float64(bm.SuccessfulTasks) / float64(bm.TotalTasks) * 100.0
}
