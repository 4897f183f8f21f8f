package monitor_relayer

import (
	"math"
	"net/http"
	"time"

	"github.com/gammazero/deque"
	"github.com/gin-gonic/gin"
	"github.com/ika-tensei/relayer/src/utils/monitoring/report"
	"github.com/ika-tensei/relayer/src/utils/task"
	"github.com/prometheus/client_golang/prometheus"
)

// Stores and computes monitor counters
type Monitor struct {
	*task.Task

	Report report.Report

	historySize int

	collector *Collector

	// Processing speed
	SealsCompleted   *deque.Deque[uint64]
	DepositsDetected *deque.Deque[uint64]
	DetectorFailures *deque.Deque[uint64]
}

func NewMonitor() (self *Monitor) {
	self = new(Monitor)

	self.Report = report.Report{
		Run:            &report.RunReport{},
		Relayer:        &report.RelayerReport{},
		Detector:       &report.DetectorReport{},
		Pool:           &report.PoolReport{},
		Gateway:        &report.GatewayReport{},
		RedisPublisher: &report.RedisPublisherReport{},
	}

	// Initialization
	self.Report.Run.State.StartTimestamp.Store(time.Now().Unix())

	self.collector = NewCollector().WithMonitor(self)

	self.Task = task.NewTask(nil, "monitor").
		WithPeriodicSubtaskFunc(time.Minute, self.monitorSeals).
		WithPeriodicSubtaskFunc(time.Minute, self.monitorDeposits).
		WithPeriodicSubtaskFunc(time.Minute, self.monitorDetectorFailures)
	return
}

func (self *Monitor) Clear() {
	self.SealsCompleted.Clear()
	self.DepositsDetected.Clear()
	self.DetectorFailures.Clear()
}

func (self *Monitor) GetReport() *report.Report {
	return &self.Report
}

func (self *Monitor) WithMaxHistorySize(maxHistorySize int) *Monitor {
	self.historySize = maxHistorySize

	self.SealsCompleted = deque.New[uint64](self.historySize)
	self.DepositsDetected = deque.New[uint64](self.historySize)
	self.DetectorFailures = deque.New[uint64](self.historySize)

	return self
}

func (self *Monitor) GetPrometheusCollector() (collector prometheus.Collector) {
	return self.collector
}

func round(f float64) float64 {
	return math.Round(f*100) / 100
}

// Measure seal completion speed
func (self *Monitor) monitorSeals() (err error) {
	loaded := self.Report.Relayer.State.SealsCompleted.Load()

	self.SealsCompleted.PushBack(loaded)
	if self.SealsCompleted.Len() > self.historySize {
		self.SealsCompleted.PopFront()
	}
	value := float64(self.SealsCompleted.Back()-self.SealsCompleted.Front()) / float64(self.SealsCompleted.Len())

	self.Report.Relayer.State.AverageSealsCompletedPerMinute.Store(round(value))
	return
}

// Measure deposit detection speed
func (self *Monitor) monitorDeposits() (err error) {
	loaded := self.Report.Detector.State.DepositsDetected.Load()

	self.DepositsDetected.PushBack(loaded)
	if self.DepositsDetected.Len() > self.historySize {
		self.DepositsDetected.PopFront()
	}
	value := float64(self.DepositsDetected.Back()-self.DepositsDetected.Front()) / float64(self.DepositsDetected.Len())

	self.Report.Detector.State.AverageDepositsPerMinute.Store(round(value))
	return
}

// Measure how often chain pollers fail, feeds the degraded health status
func (self *Monitor) monitorDetectorFailures() (err error) {
	failures := self.Report.Detector.Errors.EvmFetchFailures.Load() +
		self.Report.Detector.Errors.SolanaFetchFailures.Load() +
		self.Report.Detector.Errors.SuiFetchFailures.Load() +
		self.Report.Detector.Errors.NearFetchFailures.Load()

	self.DetectorFailures.PushBack(failures)
	if self.DetectorFailures.Len() > self.historySize {
		self.DetectorFailures.PopFront()
	}
	value := float64(self.DetectorFailures.Back()-self.DetectorFailures.Front()) / float64(self.DetectorFailures.Len())

	self.Report.Detector.State.AverageFailuresPerMinute.Store(round(value))
	return
}

func (self *Monitor) IsOK() bool {
	now := time.Now().Unix()
	if now-self.Report.Run.State.StartTimestamp.Load() < 300 {
		return true
	}

	// An idle relayer is a healthy relayer
	if self.Report.Relayer.State.SealsQueued.Load() == 0 {
		return true
	}

	// Work is queued, something has to be completing it
	last := self.Report.Relayer.State.LastCompletedTimestamp.Load()
	if last == 0 {
		return self.Report.Relayer.State.SealsProcessing.Load() > 0
	}
	return now-last < 900
}

// IsDegraded reports whether chain pollers keep failing while the core keeps
// running
func (self *Monitor) IsDegraded() bool {
	return self.Report.Detector.State.AverageFailuresPerMinute.Load() > 1
}

func (self *Monitor) OnGetState(c *gin.Context) {
	// Fill data
	self.Report.Run.State.UpForSeconds.Store(uint64(time.Now().Unix() - self.Report.Run.State.StartTimestamp.Load()))

	c.JSON(http.StatusOK, &self.Report)
}

func (self *Monitor) OnGetHealth(c *gin.Context) {
	if !self.IsOK() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy"})
		return
	}
	if self.IsDegraded() {
		c.JSON(http.StatusOK, gin.H{"status": "degraded"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
