package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"

	"kotoba/internal/logger"
)

// Task is a housekeeping job. It reports how many records it removed.
type Task struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) (int64, error)
}

// Scheduler runs housekeeping tasks in the background
type Scheduler struct {
	scheduler *gocron.Scheduler
	tasks     []Task
	timeout   time.Duration
	log       *logger.Logger
}

// New creates a scheduler for the given tasks. Nothing runs until Start.
func New(log *logger.Logger, tasks ...Task) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()
	return &Scheduler{
		scheduler: s,
		tasks:     tasks,
		timeout:   time.Minute,
		log:       log.With("component", "Scheduler"),
	}
}

// Start registers every task and begins running them in a non-blocking manner
func (s *Scheduler) Start() error {
	for _, task := range s.tasks {
		task := task
		if _, err := s.scheduler.Every(task.Interval).Do(func() { s.run(task) }); err != nil {
			return fmt.Errorf("failed to schedule %s: %w", task.Name, err)
		}
	}
	s.scheduler.StartAsync()
	s.log.Info("scheduler started", "tasks", len(s.tasks))
	return nil
}

// Stop terminates all scheduled tasks
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
	s.log.Info("scheduler stopped")
}

// RunAll runs every task once, synchronously
func (s *Scheduler) RunAll() {
	for _, task := range s.tasks {
		s.run(task)
	}
}

func (s *Scheduler) run(task Task) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	start := time.Now()
	n, err := task.Run(ctx)
	if err != nil {
		s.log.Error("housekeeping task failed", "task", task.Name, "error", err)
		return
	}
	if n > 0 {
		s.log.Info("housekeeping task removed records", "task", task.Name, "removed", n, "duration", time.Since(start))
		return
	}
	s.log.Debug("housekeeping task ran", "task", task.Name)
}
