package main

import (
	"context"
	"fmt"
	"image/color"
	"log"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/plus3/fruitmerge/debugui"
	"github.com/plus3/fruitmerge/game"
	"github.com/plus3/fruitmerge/scoreboard"
)

var (
	background   = color.RGBA{250, 244, 230, 255}
	containerBg  = color.RGBA{255, 236, 200, 255}
	wallColor    = color.RGBA{140, 100, 60, 255}
	ceilingColor = color.RGBA{220, 60, 60, 160}
	ghostColor   = color.RGBA{0, 0, 0, 60}
	fogColor     = color.RGBA{255, 255, 255, 180}
	overlayColor = color.RGBA{0, 0, 0, 140}
)

// App adapts the game to ebiten.Game.
type App struct {
	game    *game.Game
	board   *scoreboard.Board
	overlay *debugui.Overlay

	offsetX, offsetY float64
	width, height    int

	wasOver  bool
	best     int
	started  time.Time
	colors   map[string]color.RGBA
	lastSnap game.Snapshot
}

func (a *App) Update() error {
	if ebiten.IsKeyPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	if a.started.IsZero() {
		a.started = time.Now()
	}

	if a.overlay != nil {
		a.overlay.Update()
	}

	mouseFree := a.overlay == nil || !a.overlay.WantsMouse()
	clicked := mouseFree && inpututil.IsMouseButtonJustReleased(ebiten.MouseButtonLeft)

	if a.wasOver {
		if inpututil.IsKeyJustPressed(ebiten.KeyR) || clicked {
			a.game.Reset()
			a.wasOver = false
			a.started = time.Now()
		}
	} else {
		if inpututil.IsKeyJustPressed(ebiten.KeyR) {
			a.game.Reset()
			a.started = time.Now()
		}
		if clicked || inpututil.IsKeyJustPressed(ebiten.KeySpace) {
			x, _ := a.pointer()
			if _, _, err := a.game.Drop(x); err != nil {
				return err
			}
		}
	}

	if err := a.game.Step(); err != nil {
		return err
	}

	a.lastSnap = a.game.Snapshot()
	if a.lastSnap.GameOver && !a.wasOver {
		a.wasOver = true
		a.finish(a.lastSnap)
	}
	return nil
}

func (a *App) pointer() (float64, float64) {
	x, y := ebiten.CursorPosition()
	return float64(x) - a.offsetX, float64(y) - a.offsetY
}

func (a *App) finish(snap game.Snapshot) {
	log.Printf("Game over: score %d, %d merges, highest tier %d", snap.Score, snap.Stats.Merges, snap.Stats.MaxTier)
	if a.board == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := a.board.Record(ctx, scoreboard.Entry{
		Score:    snap.Score,
		Merges:   snap.Stats.Merges,
		Drops:    snap.Stats.Drops,
		MaxTier:  snap.Stats.MaxTier,
		Duration: time.Since(a.started),
	})
	if err != nil {
		log.Printf("Failed to record game: %v", err)
		return
	}
	a.best = max(a.best, snap.Score)
}

func (a *App) loadBest() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	best, ok, err := a.board.Best(ctx)
	if err != nil {
		log.Printf("Failed to read best score: %v", err)
		return
	}
	if ok {
		a.best = best.Score
	}
}

func (a *App) Draw(screen *ebiten.Image) {
	screen.Fill(background)
	snap := a.lastSnap

	ox, oy := float32(a.offsetX), float32(a.offsetY)
	w, h := float32(snap.Width), float32(snap.Height)
	vector.DrawFilledRect(screen, ox, oy, w, h, containerBg, false)
	vector.StrokeRect(screen, ox-2, oy-2, w+4, h+4, 4, wallColor, false)
	vector.StrokeLine(screen, ox, oy, ox+w, oy, 2, ceilingColor, false)

	if !snap.GameOver {
		x, _ := a.pointer()
		next, at := a.game.DropPosition(x)
		vector.DrawFilledCircle(screen, ox+float32(at.X), oy+float32(at.Y), float32(next.Radius), ghostColor, true)
		vector.StrokeLine(screen, ox+float32(at.X), oy, ox+float32(at.X), oy+h, 1, ghostColor, false)
	}

	for _, f := range snap.Fruits {
		cx, cy, r := ox+float32(f.Position.X), oy+float32(f.Position.Y), float32(f.Type.Radius)
		vector.DrawFilledCircle(screen, cx, cy, r, a.color(f.Type.Color), true)

		// Spoke so rotation is visible.
		ex := cx + r*0.8*float32(math.Cos(f.Rotation))
		ey := cy + r*0.8*float32(math.Sin(f.Rotation))
		vector.StrokeLine(screen, cx, cy, ex, ey, 2, color.RGBA{255, 255, 255, 160}, true)
	}

	ttl := a.game.Config().Fog.TTL
	for _, fog := range snap.Fogs {
		left := float32(1.0)
		if ttl > 0 {
			left = float32((fog.ExpiresAt - snap.Elapsed) / ttl)
		}
		c := fogColor
		c.A = uint8(float32(c.A) * min(max(left, 0), 1))
		vector.StrokeCircle(screen, ox+float32(fog.Position.X), oy+float32(fog.Position.Y), float32(fog.Size), 3, c, true)
	}

	hud := fmt.Sprintf("Score: %d   Best: %d   Next: %s\nMerges: %d   Highest tier: %d",
		snap.Score, max(a.best, snap.Score), snap.Next.Name, snap.Stats.Merges, snap.Stats.MaxTier)
	ebitenutil.DebugPrintAt(screen, hud, int(ox), int(oy)-hudHeight+10)

	if snap.GameOver {
		vector.DrawFilledRect(screen, ox, oy, w, h, overlayColor, false)
		ebitenutil.DebugPrintAt(screen, fmt.Sprintf("GAME OVER\nScore %d\n\nClick or press R to restart", snap.Score),
			int(ox+w/2)-80, int(oy+h/2)-30)
	}

	if a.overlay != nil {
		a.overlay.Draw(screen)
	}
}

func (a *App) Layout(outsideWidth, outsideHeight int) (int, int) {
	if a.overlay != nil {
		a.overlay.Layout(outsideWidth, outsideHeight)
		return outsideWidth, outsideHeight
	}
	return a.width, a.height
}

func (a *App) color(hex string) color.RGBA {
	if c, ok := a.colors[hex]; ok {
		return c
	}
	if a.colors == nil {
		a.colors = make(map[string]color.RGBA)
	}
	c := parseColor(hex)
	a.colors[hex] = c
	return c
}

// parseColor reads "#rrggbb". Anything else is drawn grey.
func parseColor(hex string) color.RGBA {
	grey := color.RGBA{128, 128, 128, 255}
	hex = strings.TrimPrefix(hex, "#")
	if len(hex) != 6 {
		return grey
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return grey
	}
	return color.RGBA{uint8(v >> 16), uint8(v >> 8), uint8(v), 255}
}
