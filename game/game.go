// Package game wires the fruit store, the physics world, merging, game-over
// detection and drops into one playable session.
package game

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/plus3/fruitmerge/config"
	"github.com/plus3/fruitmerge/drop"
	"github.com/plus3/fruitmerge/fruit"
	"github.com/plus3/fruitmerge/gameover"
	"github.com/plus3/fruitmerge/merge"
	"github.com/plus3/fruitmerge/physics"
	"github.com/plus3/fruitmerge/physics/chipmunk"
	"github.com/plus3/fruitmerge/sim"
	"github.com/plus3/fruitmerge/store"
)

// Snapshot is a copy of everything a renderer needs for one frame.
type Snapshot struct {
	Fruits   []store.Fruit
	Fogs     []store.FogEffect
	Score    int
	Next     fruit.Type
	GameOver bool
	Stats    store.Stats
	Elapsed  float64
	Width    float64
	Height   float64
}

// Game is safe for concurrent use. Every method takes the same lock, so a
// render loop and a background Run never interleave.
type Game struct {
	mu sync.Mutex

	cfg    config.Config
	table  *fruit.Table
	logger *log.Logger
	rng    *rand.Rand

	store     *store.Store
	world     physics.World
	adapter   *physics.Adapter
	resolver  *merge.Resolver
	detector  *gameover.Detector
	dropper   *drop.Controller
	scheduler *sim.Scheduler

	cancelRun context.CancelFunc
	closed    bool
}

// ErrRunning is returned by Run while another Run is ticking the same game.
var ErrRunning = errors.New("game is already running")

type Option func(*Game)

// WithWorld replaces the Chipmunk world.
func WithWorld(w physics.World) Option {
	return func(g *Game) {
		g.world = w
	}
}

// WithRand seeds drops and nudges from rng.
func WithRand(rng *rand.Rand) Option {
	return func(g *Game) {
		g.rng = rng
	}
}

// WithLogger logs merges and lifecycle events to l.
func WithLogger(l *log.Logger) Option {
	return func(g *Game) {
		g.logger = l
	}
}

// New builds a session from cfg.
func New(cfg config.Config, opts ...Option) (*Game, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	table, err := cfg.Table()
	if err != nil {
		return nil, err
	}

	g := &Game{cfg: cfg, table: table}
	for _, opt := range opts {
		opt(g)
	}
	if g.logger == nil {
		g.logger = log.New(io.Discard, "", 0)
	}
	if g.rng == nil {
		g.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if g.world == nil {
		g.world = chipmunk.New(chipmunkConfig(cfg))
	}

	g.store = store.New(table.Smallest())

	g.adapter = physics.NewAdapter(g.world, g.store,
		physics.WithRand(g.rng),
		physics.WithNudge(physics.Nudge{
			MaxAngle:           cfg.Nudge.MaxAngle,
			MaxAngularVelocity: cfg.Nudge.MaxAngularVelocity,
		}),
	)
	g.resolver = merge.NewResolver(g.store, table, g.adapter,
		merge.WithFog(merge.Fog{Scale: cfg.Fog.Scale, TTL: cfg.Fog.TTL}),
		merge.WithLogger(g.logger),
	)
	g.adapter.SetCollisionHandler(g.resolver)
	g.adapter.Attach()

	g.detector = gameover.New(g.store, cfg.GameOver).Attach()

	g.dropper = drop.New(g.store, table, cfg.Area.Width, g.rng)
	g.dropper.MaxSpin = cfg.Drop.MaxSpin

	g.scheduler = sim.NewScheduler()
	g.scheduler.Register(&PhysicsSystem{Adapter: g.adapter})
	g.scheduler.Register(&ClockSystem{Store: g.store})

	return g, nil
}

func chipmunkConfig(cfg config.Config) chipmunk.Config {
	return chipmunk.Config{
		Width:         cfg.Area.Width,
		Height:        cfg.Area.Height,
		WallThickness: cfg.Area.WallThickness,
		Gravity:       cfg.Physics.Gravity,
		Material: physics.Material{
			Restitution: cfg.Physics.Restitution,
			Friction:    cfg.Physics.Friction,
			AirFriction: cfg.Physics.AirFriction,
		},
		TickRate:   cfg.Physics.TickRate,
		Iterations: cfg.Physics.Iterations,
	}
}

// Config returns the settings the game was built with.
func (g *Game) Config() config.Config {
	return g.cfg
}

// Table returns the fruit table in use.
func (g *Game) Table() *fruit.Table {
	return g.table
}

// Tick advances the game by dt simulated seconds.
func (g *Game) Tick(dt float64) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed {
		return nil
	}
	return g.scheduler.Once(dt)
}

// Step advances the game by one configured tick.
func (g *Game) Step() error {
	return g.Tick(g.cfg.TickDuration())
}

// Run ticks at the configured rate until ctx is cancelled, the game is
// closed or a tick fails. Only one Run may be active at a time; a second call
// returns ErrRunning.
func (g *Game) Run(ctx context.Context) error {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return nil
	}
	if g.cancelRun != nil {
		g.mu.Unlock()
		return ErrRunning
	}
	ctx, cancel := context.WithCancel(ctx)
	g.cancelRun = cancel
	g.mu.Unlock()
	defer func() {
		cancel()
		g.mu.Lock()
		g.cancelRun = nil
		g.mu.Unlock()
	}()

	step := time.Duration(float64(time.Second) * g.cfg.TickDuration())
	return g.scheduler.Run(ctx, step, g.Tick)
}

// Drop releases the queued fruit at x. It does nothing once the game is over
// or closed.
func (g *Game) Drop(x float64) (store.FruitID, bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed {
		return 0, false, nil
	}
	return g.dropper.Drop(x)
}

// DropPosition is where the queued fruit would spawn if dropped at x.
func (g *Game) DropPosition(x float64) (fruit.Type, store.Vec2) {
	g.mu.Lock()
	defer g.mu.Unlock()

	next := g.store.NextFruit()
	return next, store.Vec2{X: g.dropper.Clamp(x, next.Radius), Y: next.Radius}
}

// Reset starts a new game with an empty container.
func (g *Game) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed {
		return
	}
	g.logger.Printf("reset: score %d, %d merges", g.store.Score(), g.store.Stats().Merges)
	g.store.Reset(g.table.Smallest())
}

// Snapshot copies the current state.
func (g *Game) Snapshot() Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()

	snap := Snapshot{
		Fruits:   make([]store.Fruit, 0, g.store.Len()),
		Fogs:     g.store.Fogs(),
		Score:    g.store.Score(),
		Next:     g.store.NextFruit(),
		GameOver: g.store.IsGameOver(),
		Stats:    g.store.Stats(),
		Elapsed:  g.store.Elapsed(),
		Width:    g.cfg.Area.Width,
		Height:   g.cfg.Area.Height,
	}
	for f := range g.store.Fruits() {
		snap.Fruits = append(snap.Fruits, f)
	}
	return snap
}

// SchedulerStats returns per-system timings.
func (g *Game) SchedulerStats() *sim.SchedulerStats {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.scheduler.GetStats()
}

// BodyCount is the number of fruit bodies in the physics world.
func (g *Game) BodyCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.adapter.BodyCount()
}

// Close stops Run, removes every body and makes later calls no-ops. It is
// safe to call more than once.
func (g *Game) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed {
		return nil
	}
	g.closed = true
	if g.cancelRun != nil {
		g.cancelRun()
	}
	g.detector.Detach()
	g.adapter.Close()
	g.logger.Printf("closed after %.1fs simulated", g.store.Elapsed())
	return nil
}

func (s Snapshot) String() string {
	state := "playing"
	if s.GameOver {
		state = "game over"
	}
	return fmt.Sprintf("%s: score %d, %d fruits, next %s", state, s.Score, len(s.Fruits), s.Next)
}
