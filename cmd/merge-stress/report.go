package main

import (
	"fmt"
	"io"
	"runtime"
	"text/template"
	"time"

	"github.com/plus3/fruitmerge/game"
	"github.com/plus3/fruitmerge/sim"
)

type Report struct {
	// Configuration
	Duration  time.Duration
	DropEvery int
	Width     float64
	Height    float64
	TickRate  float64

	// Results
	TotalTicks     int64
	TotalTime      time.Duration
	UpdateTime     Stats
	Games          int
	BestScore      int
	TotalMerges    int
	TotalDrops     int
	HighestTier    int
	PeakFruits     int
	Scheduler      *sim.SchedulerStats
	GCPauseMetrics bool
	MemStatsStart  runtime.MemStats
	MemStatsEnd    runtime.MemStats
}

type Stats struct {
	Min     time.Duration
	Max     time.Duration
	Avg     time.Duration
	Samples []time.Duration
}

func (s *Stats) Finalize() {
	if len(s.Samples) == 0 {
		return
	}

	var total time.Duration
	s.Min = s.Samples[0]
	s.Max = s.Samples[0]

	for _, sample := range s.Samples {
		if sample < s.Min {
			s.Min = sample
		}
		if sample > s.Max {
			s.Max = sample
		}
		total += sample
	}
	s.Avg = total / time.Duration(len(s.Samples))
}

func (r *Report) observe(snap game.Snapshot) {
	r.PeakFruits = max(r.PeakFruits, len(snap.Fruits))
	r.HighestTier = max(r.HighestTier, snap.Stats.MaxTier)
}

func (r *Report) finishGame(snap game.Snapshot) {
	r.Games++
	r.BestScore = max(r.BestScore, snap.Score)
	r.TotalMerges += snap.Stats.Merges
	r.TotalDrops += snap.Stats.Drops
}

// SimulatedTime is the game time covered by the run.
func (r *Report) SimulatedTime() time.Duration {
	if r.TickRate <= 0 {
		return 0
	}
	return time.Duration(float64(r.TotalTicks) / r.TickRate * float64(time.Second))
}

func (r *Report) Generate(w io.Writer) error {
	const reportTemplate = `
# Merge Stress Test Report

## Test Configuration
- **Run Duration:** {{.Duration}}
- **Play Area:** {{.Width}}x{{.Height}}
- **Tick Rate:** {{.TickRate}} Hz
- **Drop Every:** {{.DropEvery}} ticks

## Game Results
- **Finished Games:** {{.Games}}
- **Best Score:** {{.BestScore}}
- **Merges (finished games):** {{.TotalMerges}}
- **Drops (finished games):** {{.TotalDrops}}
- **Highest Tier Reached:** {{.HighestTier}}
- **Peak Live Fruits:** {{.PeakFruits}}

## Performance Results
- **Total Ticks:** {{.TotalTicks}}
- **Simulated Time:** {{.SimulatedTime}}
- **Total Test Time:** {{.TotalTime}}
- **Tick Time:**
  - **Avg:** {{.UpdateTime.Avg}}
  - **Min:** {{.UpdateTime.Min}}
  - **Max:** {{.UpdateTime.Max}}
{{with .Scheduler}}
## Systems
| System | Runs | Avg | Min | Max |
|---|---|---|---|---|
{{- range .Systems}}
| {{.Name}} | {{.ExecutionCount}} | {{.AvgDuration}} | {{.MinDuration}} | {{.MaxDuration}} |
{{- end}}
{{end}}
## Memory Usage (Raw Bytes)
- Heap Alloc:     {{.MemStatsStart.HeapAlloc}} (start) -> {{.MemStatsEnd.HeapAlloc}} (end) -> delta: {{bsub .MemStatsEnd.HeapAlloc .MemStatsStart.HeapAlloc}}
- Total Alloc:    {{.MemStatsStart.TotalAlloc}} (start) -> {{.MemStatsEnd.TotalAlloc}} (end) -> {{mb .MemStatsEnd.TotalAlloc}} MiB
- Sys Memory:     {{.MemStatsStart.Sys}} (start) -> {{.MemStatsEnd.Sys}} (end) -> delta: {{bsub .MemStatsEnd.Sys .MemStatsStart.Sys}}
- Num GC:         {{.MemStatsStart.NumGC}} (start) -> {{.MemStatsEnd.NumGC}} (end) -> delta: {{usub .MemStatsEnd.NumGC .MemStatsStart.NumGC}}

{{if .GCPauseMetrics}}
## GC Pause Durations
- **Total GC Pause:** {{.MemStatsEnd.PauseTotalNs | ns}}
- **Num GC Cycles:** {{ usub .MemStatsEnd.NumGC .MemStatsStart.NumGC }}
{{end}}
`

	fm := template.FuncMap{
		"mb": func(v uint64) string {
			return fmt.Sprintf("%.2f", float64(v)/1024/1024)
		},
		"bsub": func(a, b uint64) int64 {
			return int64(a) - int64(b)
		},
		"usub": func(a, b uint32) uint32 {
			return a - b
		},
		"ns": func(ns uint64) string {
			return time.Duration(ns).String()
		},
	}

	tmpl, err := template.New("report").Funcs(fm).Parse(reportTemplate)
	if err != nil {
		return err
	}

	return tmpl.Execute(w, r)
}
