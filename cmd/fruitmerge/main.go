package main

import (
	"flag"
	"log"
	"math/rand/v2"
	"os"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/plus3/fruitmerge/config"
	"github.com/plus3/fruitmerge/debugui"
	"github.com/plus3/fruitmerge/game"
	"github.com/plus3/fruitmerge/scoreboard"
)

const (
	margin    = 40
	hudHeight = 60
	title     = "Fruit Merge"
)

func main() {
	configPath := flag.String("config", "", "YAML file overriding the default settings.")
	scoresPath := flag.String("scores", "", "SQLite file to record finished games in.")
	debug := flag.Bool("debug", false, "Show the ImGui debug windows.")
	seed := flag.Uint64("seed", 0, "Random seed for drops and nudges. 0 picks one.")
	verbose := flag.Bool("v", false, "Log every merge.")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	opts := []game.Option{}
	if *seed != 0 {
		opts = append(opts, game.WithRand(rand.New(rand.NewPCG(*seed, *seed))))
	}
	if *verbose {
		opts = append(opts, game.WithLogger(log.New(os.Stderr, "fruitmerge: ", log.LstdFlags)))
	}

	g, err := game.New(cfg, opts...)
	if err != nil {
		log.Fatalf("Failed to start game: %v", err)
	}
	defer g.Close()

	app := &App{
		game:    g,
		offsetX: margin,
		offsetY: margin + hudHeight,
		width:   int(cfg.Area.Width) + 2*margin,
		height:  int(cfg.Area.Height) + 2*margin + hudHeight,
	}

	if *scoresPath != "" {
		board, err := scoreboard.Open(*scoresPath)
		if err != nil {
			log.Fatalf("Failed to open scoreboard: %v", err)
		}
		defer board.Close()
		app.board = board
		app.loadBest()
	}

	if *debug {
		app.overlay = debugui.New(g, title, app.width+700, app.height)
		app.offsetX += 700
		app.width += 700
	} else {
		ebiten.SetWindowSize(app.width, app.height)
		ebiten.SetWindowTitle(title)
	}

	log.Printf("Starting %s: %.0fx%.0f play area", title, cfg.Area.Width, cfg.Area.Height)
	if err := ebiten.RunGame(app); err != nil {
		log.Fatalf("Game stopped: %v", err)
	}
}
