package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron"
)

// Flusher persists the ledger and mirrors it remotely. Implemented by
// the application wiring in main.
type Flusher interface {
	Flush(ctx context.Context) error
}

// Scheduler runs the periodic save-and-sync job for the application.
type Scheduler struct {
	scheduler *gocron.Scheduler
	flusher   Flusher
	interval  time.Duration
}

// New creates a new scheduler instance flushing every interval.
func New(flusher Flusher, interval time.Duration) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	return &Scheduler{
		scheduler: s,
		flusher:   flusher,
		interval:  interval,
	}
}

// Start begins running the periodic flush in the background.
func (s *Scheduler) Start() {
	s.scheduler.Every(s.interval).Do(s.flush)
	s.scheduler.StartAsync()
}

// Stop terminates all scheduled tasks.
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

func (s *Scheduler) flush() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := s.flusher.Flush(ctx); err != nil {
		log.Printf("Periodic flush failed: %v", err)
		return
	}
	log.Println("Progress data saved.")
}
