package timer

import (
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler runs fn periodically until the returned cancel func is called.
// Cancel must be safe to call more than once.
type Scheduler interface {
	Every(interval time.Duration, fn func()) (cancel func())
}

// CronScheduler schedules ticks on a robfig/cron runner. Intervals are
// rounded down to whole seconds with a one second minimum.
type CronScheduler struct {
	cron *cron.Cron
}

func NewCronScheduler() *CronScheduler {
	c := cron.New()
	c.Start()
	return &CronScheduler{cron: c}
}

func (s *CronScheduler) Every(interval time.Duration, fn func()) func() {
	id := s.cron.Schedule(cron.Every(interval), cron.FuncJob(fn))
	var once sync.Once
	return func() {
		once.Do(func() { s.cron.Remove(id) })
	}
}

// Stop halts the runner and waits for running jobs to finish.
func (s *CronScheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

type noopScheduler struct{}

func (noopScheduler) Every(time.Duration, func()) func() { return func() {} }
