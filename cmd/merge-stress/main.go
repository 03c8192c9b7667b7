package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand/v2"
	"os"
	"runtime"
	"time"

	"github.com/plus3/fruitmerge/config"
	"github.com/plus3/fruitmerge/game"
	"github.com/plus3/fruitmerge/scoreboard"
)

func main() {
	duration := flag.Duration("duration", 10*time.Second, "The total wall clock time the test should run for.")
	dropEvery := flag.Int("drop-every", 20, "Ticks between random drops.")
	configPath := flag.String("config", "", "YAML file overriding the default settings.")
	scoresPath := flag.String("scores", "", "SQLite file to record every finished game in.")
	seed := flag.Uint64("seed", 1, "Random seed for drop positions.")
	gcPauseMetrics := flag.Bool("gc-pause-metrics", false, "Enable detailed GC pause metrics in the report.")
	flag.Parse()

	if *dropEvery <= 0 {
		log.Fatalf("-drop-every must be positive, got %d", *dropEvery)
	}

	log.Println("Starting merge stress test...")

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	rng := rand.New(rand.NewPCG(*seed, *seed^0x9e3779b97f4a7c15))
	g, err := game.New(cfg, game.WithRand(rng))
	if err != nil {
		log.Fatalf("Failed to create game: %v", err)
	}
	defer g.Close()

	var board *scoreboard.Board
	if *scoresPath != "" {
		board, err = scoreboard.Open(*scoresPath)
		if err != nil {
			log.Fatalf("Failed to open scoreboard: %v", err)
		}
		defer board.Close()
	}

	report := &Report{
		Duration:       *duration,
		DropEvery:      *dropEvery,
		Width:          cfg.Area.Width,
		Height:         cfg.Area.Height,
		TickRate:       cfg.Physics.TickRate,
		GCPauseMetrics: *gcPauseMetrics,
	}

	runtime.ReadMemStats(&report.MemStatsStart)

	log.Printf("Running simulation for %s...\n", *duration)
	ctx, cancel := context.WithTimeout(context.Background(), *duration)
	defer cancel()

	startTime := time.Now()
	gameStart := time.Now()

Loop:
	for {
		select {
		case <-ctx.Done():
			break Loop
		default:
		}

		if report.TotalTicks%int64(*dropEvery) == 0 {
			if _, _, err := g.Drop(rng.Float64() * cfg.Area.Width); err != nil {
				log.Fatalf("Drop failed: %v", err)
			}
		}

		updateStart := time.Now()
		if err := g.Step(); err != nil {
			log.Fatalf("Tick failed: %v", err)
		}
		report.UpdateTime.Samples = append(report.UpdateTime.Samples, time.Since(updateStart))
		report.TotalTicks++

		snap := g.Snapshot()
		report.observe(snap)
		if !snap.GameOver {
			continue
		}

		report.finishGame(snap)
		if board != nil {
			_, err := board.Record(ctx, scoreboard.Entry{
				Score:    snap.Score,
				Merges:   snap.Stats.Merges,
				Drops:    snap.Stats.Drops,
				MaxTier:  snap.Stats.MaxTier,
				Duration: time.Since(gameStart),
			})
			if err != nil && ctx.Err() == nil {
				log.Printf("Failed to record game: %v", err)
			}
		}
		g.Reset()
		gameStart = time.Now()
	}

	report.TotalTime = time.Since(startTime)
	report.UpdateTime.Finalize()
	report.Scheduler = g.SchedulerStats()
	runtime.ReadMemStats(&report.MemStatsEnd)

	log.Println("Simulation finished.")

	fmt.Println("\n\n--- Merge Stress Report ---")
	if err := report.Generate(os.Stdout); err != nil {
		log.Fatalf("Failed to generate report: %v", err)
	}
	fmt.Println("--- End of Report ---")

	log.Println("Stress test complete.")
}
