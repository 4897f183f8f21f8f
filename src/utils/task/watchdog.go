package task

import (
	"time"

	"github.com/ika-tensei/relayer/src/utils/config"
)

// How often the health check runs
const watchdogInterval = 30 * time.Second

// Watchdog restarts the watched task whenever the health check fails. The
// watched task is rebuilt from scratch through the factory, so a restart
// reopens every connection the task owned.
type Watchdog struct {
	*Task

	factory func() *Task
	isOK    func() bool

	watched *Task
}

func NewWatchdog(config *config.Config) (self *Watchdog) {
	self = new(Watchdog)

	self.Task = NewTask(config, "watchdog").
		WithOnBeforeStart(self.start).
		WithPeriodicSubtaskFunc(watchdogInterval, self.check).
		WithOnStop(self.stop)

	return
}

func (self *Watchdog) WithTask(factory func() *Task) *Watchdog {
	self.factory = factory
	return self
}

func (self *Watchdog) WithIsOK(isOK func() bool) *Watchdog {
	self.isOK = isOK
	return self
}

func (self *Watchdog) start() (err error) {
	self.watched = self.factory()
	return self.watched.Start()
}

func (self *Watchdog) stop() {
	if self.watched == nil {
		return
	}
	self.watched.StopWait()
}

func (self *Watchdog) check() (err error) {
	if self.isOK == nil || self.isOK() {
		return nil
	}

	self.Log.Error("Health check failed, restarting watched task")
	self.watched.StopWait()

	if self.IsStopping.Load() {
		return nil
	}

	self.watched = self.factory()
	return self.watched.Start()
}
