// Package debugui draws Dear ImGui windows over the game: score and merge
// statistics, a fruit browser and per-system scheduler timings.
package debugui

import (
	"fmt"
	"math"
	"sort"
	"time"

	ebitenbackend "github.com/AllenDang/cimgui-go/backend/ebiten-backend"
	"github.com/AllenDang/cimgui-go/imgui"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/plus3/fruitmerge/fruit"
	"github.com/plus3/fruitmerge/game"
	"github.com/plus3/fruitmerge/sim"
)

// Overlay owns the ImGui backend and the state of every debug window.
type Overlay struct {
	backend *ebitenbackend.EbitenBackend
	game    *game.Game

	frames    *FrameHistory
	lastFrame time.Time

	fruitPage int
}

const fruitsPerPage = 20

// New creates the ImGui context on the ebiten backend.
func New(g *game.Game, title string, width, height int) *Overlay {
	backend := ebitenbackend.NewEbitenBackend()
	backend.CreateWindow(title, width, height)
	imgui.CurrentIO().SetIniFilename("")

	return &Overlay{
		backend:   backend,
		game:      g,
		frames:    NewFrameHistory(120),
		lastFrame: time.Now(),
	}
}

// WantsMouse reports whether ImGui is using the pointer, in which case the
// game should not treat clicks as drops.
func (o *Overlay) WantsMouse() bool {
	return imgui.CurrentIO().WantCaptureMouse()
}

// Update builds this frame's windows. Call it once per ebiten Update.
func (o *Overlay) Update() {
	now := time.Now()
	o.frames.Add(float32(now.Sub(o.lastFrame).Seconds() * 1000))
	o.lastFrame = now

	o.backend.BeginFrame()

	snap := o.game.Snapshot()
	o.renderGame(snap)
	o.renderFruits(snap)
	o.renderScheduler(o.game.SchedulerStats())

	o.backend.EndFrame()
}

func (o *Overlay) Draw(screen *ebiten.Image) {
	o.backend.Draw(screen)
}

func (o *Overlay) Layout(width, height int) {
	o.backend.Layout(width, height)
}

func (o *Overlay) renderGame(snap game.Snapshot) {
	imgui.SetNextWindowPosV(imgui.NewVec2(10, 10), imgui.CondOnce, imgui.NewVec2(0, 0))
	imgui.SetNextWindowSizeV(imgui.NewVec2(300, 320), imgui.CondOnce)

	if !imgui.BeginV("Game", nil, 0) {
		imgui.End()
		return
	}

	avg := o.frames.Average()
	if avg > 0 {
		imgui.Text(fmt.Sprintf("Avg Frame Time: %.2f ms (%.0f FPS)", avg, 1000.0/avg))
	}
	imgui.PlotLinesFloatPtr("##frametime", &o.frames.samples[0], int32(len(o.frames.samples)))
	imgui.Separator()

	imgui.Text(fmt.Sprintf("Score: %d", snap.Score))
	imgui.Text(fmt.Sprintf("Next: %s", snap.Next))
	imgui.Text(fmt.Sprintf("Simulated: %.1f s", snap.Elapsed))
	if snap.GameOver {
		imgui.Text("GAME OVER")
	}
	imgui.Separator()
	imgui.Text(fmt.Sprintf("Drops: %d", snap.Stats.Drops))
	imgui.Text(fmt.Sprintf("Merges: %d", snap.Stats.Merges))
	imgui.Text(fmt.Sprintf("Highest tier: %d", snap.Stats.MaxTier))
	imgui.Text(fmt.Sprintf("Fruits: %d  Bodies: %d  Fog: %d", len(snap.Fruits), o.game.BodyCount(), len(snap.Fogs)))

	if imgui.TreeNodeStr("Tiers") {
		const tableFlags = imgui.TableFlagsBorders | imgui.TableFlagsRowBg
		if imgui.BeginTableV("TierTable", 3, tableFlags, imgui.NewVec2(0, 0), 0) {
			imgui.TableSetupColumn("Tier")
			imgui.TableSetupColumn("Name")
			imgui.TableSetupColumn("Live")
			imgui.TableHeadersRow()

			for _, row := range TierCounts(o.game.Table(), snap) {
				imgui.TableNextRow()
				imgui.TableNextColumn()
				imgui.Text(fmt.Sprintf("%d", row.Type.Tier))
				imgui.TableNextColumn()
				imgui.Text(row.Type.Name)
				imgui.TableNextColumn()
				imgui.Text(fmt.Sprintf("%d", row.Count))
			}
			imgui.EndTable()
		}
		imgui.TreePop()
	}

	imgui.End()
}

func (o *Overlay) renderFruits(snap game.Snapshot) {
	imgui.SetNextWindowPosV(imgui.NewVec2(10, 340), imgui.CondOnce, imgui.NewVec2(0, 0))
	imgui.SetNextWindowSizeV(imgui.NewVec2(420, 300), imgui.CondOnce)

	if !imgui.BeginV("Fruits", nil, 0) {
		imgui.End()
		return
	}

	pages := max(1, (len(snap.Fruits)+fruitsPerPage-1)/fruitsPerPage)
	o.fruitPage = min(o.fruitPage, pages-1)

	if imgui.Button("<") && o.fruitPage > 0 {
		o.fruitPage--
	}
	imgui.SameLine()
	imgui.Text(fmt.Sprintf("Page %d / %d", o.fruitPage+1, pages))
	imgui.SameLine()
	if imgui.Button(">") && o.fruitPage < pages-1 {
		o.fruitPage++
	}

	const tableFlags = imgui.TableFlagsBorders | imgui.TableFlagsRowBg | imgui.TableFlagsScrollY
	if imgui.BeginTableV("FruitTable", 4, tableFlags, imgui.NewVec2(0, 0), 0) {
		imgui.TableSetupColumn("ID")
		imgui.TableSetupColumn("Type")
		imgui.TableSetupColumn("Position")
		imgui.TableSetupColumn("Speed")
		imgui.TableHeadersRow()

		start := o.fruitPage * fruitsPerPage
		end := min(start+fruitsPerPage, len(snap.Fruits))
		for _, f := range snap.Fruits[start:end] {
			imgui.TableNextRow()
			imgui.TableNextColumn()
			imgui.Text(f.ID.String())
			imgui.TableNextColumn()
			imgui.Text(f.Type.Name)
			imgui.TableNextColumn()
			imgui.Text(fmt.Sprintf("%.1f, %.1f", f.Position.X, f.Position.Y))
			imgui.TableNextColumn()
			imgui.Text(fmt.Sprintf("%.1f", speed(f.Velocity.X, f.Velocity.Y)))
		}
		imgui.EndTable()
	}

	imgui.End()
}

func (o *Overlay) renderScheduler(stats *sim.SchedulerStats) {
	imgui.SetNextWindowPosV(imgui.NewVec2(320, 10), imgui.CondOnce, imgui.NewVec2(0, 0))
	imgui.SetNextWindowSizeV(imgui.NewVec2(400, 200), imgui.CondOnce)

	if !imgui.BeginV("System Performance", nil, 0) {
		imgui.End()
		return
	}

	imgui.Text(fmt.Sprintf("System Count: %d  Ticks: %d", stats.SystemCount, stats.Ticks))
	imgui.Separator()

	const tableFlags = imgui.TableFlagsBorders | imgui.TableFlagsRowBg | imgui.TableFlagsSortable | imgui.TableFlagsSizingFixedFit
	if imgui.BeginTableV("Systems", 4, tableFlags, imgui.NewVec2(0, 0), 0) {
		imgui.TableSetupColumn("Name")
		imgui.TableSetupColumn("Avg (ms)")
		imgui.TableSetupColumn("Min (ms)")
		imgui.TableSetupColumn("Max (ms)")
		imgui.TableHeadersRow()

		systems := stats.Systems
		if sortSpecs := imgui.TableGetSortSpecs(); sortSpecs.SpecsCount() > 0 {
			spec := sortSpecs.Specs()
			SortSystems(systems, int(spec.ColumnIndex()), spec.SortDirection() == imgui.SortDirectionDescending)
		}

		for _, sys := range systems {
			imgui.TableNextRow()
			imgui.TableNextColumn()
			imgui.Text(sys.Name)
			imgui.TableNextColumn()
			imgui.Text(fmt.Sprintf("%.3f", millis(sys.AvgDuration)))
			imgui.TableNextColumn()
			imgui.Text(fmt.Sprintf("%.3f", millis(sys.MinDuration)))
			imgui.TableNextColumn()
			imgui.Text(fmt.Sprintf("%.3f", millis(sys.MaxDuration)))
		}
		imgui.EndTable()
	}

	imgui.End()
}

// TierCount is the number of live fruits of one type.
type TierCount struct {
	Type  fruit.Type
	Count int
}

// TierCounts lists every tier of table with how many fruits of it are live.
func TierCounts(table *fruit.Table, snap game.Snapshot) []TierCount {
	counts := make(map[int]int)
	for _, f := range snap.Fruits {
		counts[f.Type.Tier]++
	}

	rows := make([]TierCount, 0, table.Len())
	for t := range table.All() {
		rows = append(rows, TierCount{Type: t, Count: counts[t.Tier]})
	}
	return rows
}

// SortSystems orders stats by a System Performance column: 0 name, 1 average,
// 2 minimum, 3 maximum.
func SortSystems(systems []sim.SystemStats, column int, descending bool) {
	sort.SliceStable(systems, func(i, j int) bool {
		left, right := systems[i], systems[j]
		if descending {
			left, right = right, left
		}
		switch column {
		case 1:
			return left.AvgDuration < right.AvgDuration
		case 2:
			return left.MinDuration < right.MinDuration
		case 3:
			return left.MaxDuration < right.MaxDuration
		default:
			return left.Name < right.Name
		}
	})
}

// FrameHistory is a ring of frame times in milliseconds.
type FrameHistory struct {
	samples []float32
	next    int
	filled  int
}

func NewFrameHistory(size int) *FrameHistory {
	return &FrameHistory{samples: make([]float32, size)}
}

func (h *FrameHistory) Add(ms float32) {
	h.samples[h.next] = ms
	h.next = (h.next + 1) % len(h.samples)
	h.filled = min(h.filled+1, len(h.samples))
}

// Average is the mean of the recorded samples, or 0 before the first one.
func (h *FrameHistory) Average() float32 {
	if h.filled == 0 {
		return 0
	}
	var total float32
	for _, s := range h.samples[:h.filled] {
		total += s
	}
	return total / float32(h.filled)
}

func speed(vx, vy float64) float64 {
	return math.Hypot(vx, vy)
}

func millis(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000.0
}
