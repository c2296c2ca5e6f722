package jobs

import (
	"context"
	"log"

	"github.com/robfig/cron/v3"
)

// Job is a named unit of scheduled background work.
type Job interface {
	Name() string
	// Schedule in cron syntax; empty means on-demand only.
	Schedule() string
	Run(ctx context.Context) error
}

// Scheduler registers jobs against a shared cron runner.
type Scheduler struct {
	cron *cron.Cron
	jobs []Job
}

func NewScheduler() *Scheduler {
	return &Scheduler{
		cron: cron.New(),
		jobs: make([]Job, 0),
	}
}

func (s *Scheduler) Register(job Job) {
	s.jobs = append(s.jobs, job)

	schedule := job.Schedule()
	if schedule == "" {
		log.Printf("[%s] registered as on-demand job (no schedule)", job.Name())
		return
	}

	_, err := s.cron.AddFunc(schedule, func() {
		if err := job.Run(context.Background()); err != nil {
			log.Printf("[%s] job failed: %v", job.Name(), err)
		}
	})
	if err != nil {
		log.Printf("failed to schedule job %s: %v", job.Name(), err)
	} else {
		log.Printf("[%s] scheduled with cron: %s", job.Name(), schedule)
	}
}

func (s *Scheduler) Start() {
	s.cron.Start()
	log.Printf("scheduler started with %d registered jobs", len(s.jobs))
}

func (s *Scheduler) Stop() {
	s.cron.Stop()
	log.Println("scheduler stopped")
}
