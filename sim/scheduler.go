// Package sim runs the game's per-tick systems in a fixed order and keeps
// timing statistics for each of them.
package sim

import (
	"context"
	"fmt"
	"reflect"
	"time"
)

// Frame is passed to every system during one tick.
type Frame struct {
	DeltaTime float64
	Tick      uint64
}

// System is one stage of a tick.
type System interface {
	Execute(frame *Frame) error
}

// SystemFunc adapts a function to System. Its stats are reported under
// "SystemFunc" unless it is registered with RegisterNamed.
type SystemFunc func(frame *Frame) error

func (f SystemFunc) Execute(frame *Frame) error {
	return f(frame)
}

// SchedulerStats provides statistics about scheduler execution.
type SchedulerStats struct {
	SystemCount     int
	Ticks           uint64
	TotalExecutions int64
	Systems         []SystemStats
}

// SystemStats provides execution statistics for a single system.
type SystemStats struct {
	Name           string
	ExecutionCount int64
	MinDuration    time.Duration
	MaxDuration    time.Duration
	AvgDuration    time.Duration
	LastDuration   time.Duration
	TotalDuration  time.Duration
}

type systemStatsInternal struct {
	name           string
	executionCount int64
	minDuration    time.Duration
	maxDuration    time.Duration
	totalDuration  time.Duration
	lastDuration   time.Duration
}

// Scheduler executes systems in registration order.
type Scheduler struct {
	systems     []System
	systemStats []*systemStatsInternal
	ticks       uint64
}

func NewScheduler() *Scheduler {
	return &Scheduler{
		systems: make([]System, 0),
	}
}

// Register adds a system, named after its type in the stats.
func (s *Scheduler) Register(system System) {
	systemType := reflect.TypeOf(system)
	if systemType.Kind() == reflect.Ptr {
		systemType = systemType.Elem()
	}
	s.RegisterNamed(systemType.Name(), system)
}

// RegisterNamed adds a system under an explicit stats name.
func (s *Scheduler) RegisterNamed(name string, system System) {
	s.systems = append(s.systems, system)
	s.systemStats = append(s.systemStats, &systemStatsInternal{
		name:        name,
		minDuration: time.Duration(1<<63 - 1),
	})
}

// Once executes all registered systems with the given delta time. The first
// failing system ends the tick and its error is returned.
func (s *Scheduler) Once(dt float64) error {
	s.ticks++
	frame := &Frame{DeltaTime: dt, Tick: s.ticks}

	for i, system := range s.systems {
		start := time.Now()
		err := system.Execute(frame)
		duration := time.Since(start)

		stats := s.systemStats[i]
		stats.executionCount++
		stats.lastDuration = duration
		stats.totalDuration += duration

		if duration < stats.minDuration {
			stats.minDuration = duration
		}
		if duration > stats.maxDuration {
			stats.maxDuration = duration
		}

		if err != nil {
			return fmt.Errorf("tick %d: %s: %w", frame.Tick, stats.name, err)
		}
	}
	return nil
}

// Run executes all systems every step until the context is cancelled or a
// tick fails. Each tick advances the simulation by exactly step, however late
// the ticker fires.
func (s *Scheduler) Run(ctx context.Context, step time.Duration, tick func(dt float64) error) error {
	if tick == nil {
		tick = s.Once
	}

	ticker := time.NewTicker(step)
	defer ticker.Stop()

	dt := step.Seconds()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := tick(dt); err != nil {
				return err
			}
		}
	}
}

// Ticks is the number of ticks run so far.
func (s *Scheduler) Ticks() uint64 {
	return s.ticks
}

// GetStats returns statistics about system execution.
func (s *Scheduler) GetStats() *SchedulerStats {
	stats := &SchedulerStats{
		SystemCount: len(s.systems),
		Ticks:       s.ticks,
		Systems:     make([]SystemStats, len(s.systemStats)),
	}

	var totalExecs int64
	for i, internal := range s.systemStats {
		avgDuration := time.Duration(0)
		minDuration := time.Duration(0)
		if internal.executionCount > 0 {
			avgDuration = internal.totalDuration / time.Duration(internal.executionCount)
			minDuration = internal.minDuration
		}

		stats.Systems[i] = SystemStats{
			Name:           internal.name,
			ExecutionCount: internal.executionCount,
			MinDuration:    minDuration,
			MaxDuration:    internal.maxDuration,
			AvgDuration:    avgDuration,
			LastDuration:   internal.lastDuration,
			TotalDuration:  internal.totalDuration,
		}
		totalExecs += internal.executionCount
	}

	stats.TotalExecutions = totalExecs
	return stats
}
