package game

import (
	"context"
	"fmt"
	"image/color"
	"math"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/lao-tseu-is-alive/go-boids-quadtree/pkg/geometry"
	"github.com/lao-tseu-is-alive/go-boids-quadtree/pkg/simulation"
	"github.com/lao-tseu-is-alive/go-boids-quadtree/pkg/ui"
	"github.com/tochemey/goakt/v3/actor"
	"google.golang.org/protobuf/types/known/durationpb"
	"google.golang.org/protobuf/types/known/structpb"
)

// removeRadius is how close a right click must be to an attraction point to delete it.
const removeRadius = 40.0

// Pre-rendered sprite for fast batched drawing
var boidSprite *ebiten.Image

var (
	attractorColor  = color.RGBA{R: 255, G: 80, B: 60, A: 255}
	perceptionColor = color.RGBA{R: 50, G: 100, B: 255, A: 40}
	protectedColor  = color.RGBA{R: 255, G: 200, B: 0, A: 40}
	nodeColor       = color.RGBA{R: 80, G: 200, B: 120, A: 90}
)

// tunable is a slider bound to a live config key.
type tunable struct {
	key    string
	slider *ui.Slider
	sent   float64
}

type Game struct {
	ctx        context.Context
	System     actor.ActorSystem
	worldPID   *actor.PID
	snapshotCh chan *simulation.WorldSnapshot
	lastState  *simulation.WorldSnapshot
	attractors *simulation.Attractors

	// UI Controls
	panel                *ui.UIPanel
	tunables             []*tunable
	widgetShowPerception *ui.Checkbox
	widgetShowQuadtree   *ui.Checkbox
	sentShowQuadtree     bool
	rejected             error // latest slider update the world would refuse

	// cfg mirrors the config held by the world: both start from the same
	// values and accept the same updates in the same order.
	cfg *simulation.Config

	// Timing instrumentation
	lastUpdateDuration time.Duration
	lastDrawDuration   time.Duration
	updateAvg          float64 // Rolling average in ms
	drawAvg            float64 // Rolling average in ms
}

// GetNewGame spawns the world actor in system and builds the control panel.
func GetNewGame(ctx context.Context, cfg *simulation.Config, system actor.ActorSystem) (*Game, error) {
	// 1. Create Channels for communication
	snapshotCh := make(chan *simulation.WorldSnapshot, 10) // Buffer to avoid blocking
	attractors := simulation.NewAttractors()

	// 2. Spawn World Actor
	// We pass the channel to the World so it can push updates to us.
	// The world gets its own copy of the config, live updates travel as messages.
	worldCfg, mirror := *cfg, *cfg
	worldPID, err := system.Spawn(ctx, "world", simulation.NewWorldActor(snapshotCh, &worldCfg, attractors))
	if err != nil {
		return nil, fmt.Errorf("failed to spawn world: %w", err)
	}

	g := &Game{
		ctx:        ctx,
		System:     system,
		worldPID:   worldPID,
		snapshotCh: snapshotCh,
		lastState:  &simulation.WorldSnapshot{}, // Avoid nil pointer
		attractors: attractors,
		cfg:        &mirror,
	}

	// 3. Initialize UI Panel with all live configuration widgets
	panel := ui.NewUIPanel(10, 10, 240, cfg.WorldHeight-20)
	g.panel = panel

	panel.AddSection("Ranges")
	g.addTunable("perceptionRange", "Perception Range", 10, 150, cfg.PerceptionRange)
	g.addTunable("protectedRange", "Protected Range", 1, 50, cfg.ProtectedRange)
	g.addTunable("edgeMargin", "Edge Margin", 0, 300, cfg.EdgeMargin)
	panel.EndSection()

	panel.AddSection("Boids Flocking")
	g.addTunable("separationFactor", "Separation", 0, 1, cfg.SeparationFactor)
	g.addTunable("alignmentFactor", "Alignment", 0, 0.5, cfg.AlignmentFactor)
	g.addTunable("cohesionFactor", "Cohesion", 0, 0.5, cfg.CohesionFactor)
	g.addTunable("turnFactor", "Turn Factor", 0, 1, cfg.TurnFactor)
	panel.EndSection()

	panel.AddSection("Speed")
	g.addTunable("minSpeed", "Min Speed", 0.5, 10, cfg.MinSpeed)
	g.addTunable("maxSpeed", "Max Speed", 1, 12, cfg.MaxSpeed)
	panel.EndSection()

	panel.AddSection("Attraction")
	g.addTunable("attractionPointFactor", "Attraction", 0, 0.5, cfg.AttractionPointFactor)
	panel.AddButton("Clear attraction points", func() { attractors.Clear() })
	panel.EndSection()

	panel.AddSection("Visualization")
	g.widgetShowPerception = panel.AddCheckbox("Show Perception Range", false)
	g.widgetShowQuadtree = panel.AddCheckbox("Show Quadtree", false)
	panel.EndSection()

	return g, nil
}

// WorldPID returns the world actor driven by the game.
func (g *Game) WorldPID() *actor.PID { return g.worldPID }

func (g *Game) addTunable(key, label string, min, max, value float64) {
	s := g.panel.AddSlider(label, min, max, value)
	g.tunables = append(g.tunables, &tunable{key: key, slider: s, sent: s.Value})
}

func (g *Game) Update() error {
	start := time.Now()
	defer func() {
		g.lastUpdateDuration = time.Since(start)
		// Rolling average (exponential moving average)
		g.updateAvg = g.updateAvg*0.95 + float64(g.lastUpdateDuration.Microseconds())/1000.0*0.05
	}()

	// 1. Update UI Panel and world clicks
	g.panel.Update()
	g.handleMouse()
	if inpututil.IsKeyJustPressed(ebiten.KeyG) {
		g.widgetShowQuadtree.Toggle()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyP) {
		g.widgetShowPerception.Toggle()
	}

	// 2. Retrieve Latest State (Non-blocking)
	select {
	case snap := <-g.snapshotCh:
		g.lastState = snap
	default:
		// Use previous state if new one isn't ready
	}

	// 3. Send the changed configuration values to the world
	update, err := g.pendingUpdate()
	if err != nil {
		return err
	}
	if update != nil {
		if err := actor.Tell(g.ctx, g.worldPID, update); err != nil {
			return fmt.Errorf("sending config update: %w", err)
		}
	}

	// 4. Trigger Simulation Step
	step := durationpb.New(time.Second / time.Duration(ebiten.TPS()))
	if err := actor.Tell(g.ctx, g.worldPID, step); err != nil {
		return fmt.Errorf("sending tick: %w", err)
	}
	return nil
}

// handleMouse places an attraction point on left click and removes the
// nearest one on right click. Clicks on the panel belong to the widgets.
func (g *Game) handleMouse() {
	mx, my := ebiten.CursorPosition()
	pos := geometry.Vector2D{X: float64(mx), Y: float64(my)}
	if g.panel.Contains(pos.X, pos.Y) {
		return
	}
	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		g.attractors.Add(pos)
	}
	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonRight) {
		g.attractors.RemoveNearest(pos, removeRadius)
	}
}

// pendingUpdate collects the widgets whose value changed since the last
// update sent to the world, nil when nothing changed.
// Slider changes are checked against the mirrored config first. When the
// world would reject them the sliders snap back to the values in use.
func (g *Game) pendingUpdate() (*structpb.Struct, error) {
	changed := make(map[string]any)
	var moved []*tunable
	for _, t := range g.tunables {
		if t.slider.Value != t.sent {
			changed[t.key] = t.slider.Value
			moved = append(moved, t)
		}
	}
	if len(moved) > 0 {
		next := *g.cfg
		if err := next.Apply(changed); err != nil {
			g.rejected = err
			clear(changed)
			for _, t := range moved {
				t.slider.Set(t.sent)
			}
		} else {
			g.rejected = nil
			*g.cfg = next
			for _, t := range moved {
				t.sent = t.slider.Value
			}
		}
	}
	if show := g.widgetShowQuadtree.Value; show != g.sentShowQuadtree {
		changed[simulation.ShowQuadtreeKey] = show
		g.sentShowQuadtree = show
	}
	if len(changed) == 0 {
		return nil, nil
	}
	update, err := structpb.NewStruct(changed)
	if err != nil {
		return nil, fmt.Errorf("encoding config update: %w", err)
	}
	return update, nil
}

func (g *Game) Draw(screen *ebiten.Image) {
	start := time.Now()
	defer func() {
		g.lastDrawDuration = time.Since(start)
		g.drawAvg = g.drawAvg*0.95 + float64(g.lastDrawDuration.Microseconds())/1000.0*0.05
	}()

	// 1. Quadtree nodes under everything else
	for _, n := range g.lastState.Nodes {
		lo := n.Min()
		vector.StrokeRect(screen, float32(lo.X), float32(lo.Y), float32(n.Width()), float32(n.Height()), 1, nodeColor, false)
	}

	// 2. Draw all agents from the last known snapshot
	w, h := boidSprite.Bounds().Dx(), boidSprite.Bounds().Dy()
	for _, a := range g.lastState.Agents {
		if g.widgetShowPerception.Value {
			x, y := float32(a.Pos.X), float32(a.Pos.Y)
			vector.StrokeCircle(screen, x, y, float32(g.cfg.PerceptionRange), 1, perceptionColor, true)
			vector.StrokeCircle(screen, x, y, float32(g.cfg.ProtectedRange), 1, protectedColor, true)
		}

		// Use pre-rendered sprite (batched by Ebiten automatically)
		op := &ebiten.DrawImageOptions{}
		// Center the origin of the image
		op.GeoM.Translate(-float64(w)/2, -float64(h)/2)
		// The sprite faces "Up", add math.Pi/2 to align it with the heading
		op.GeoM.Rotate(a.Heading + math.Pi/2)
		// Move to actual position in world
		op.GeoM.Translate(a.Pos.X, a.Pos.Y)
		screen.DrawImage(boidSprite, op)
	}

	// 3. Attraction points
	for _, p := range g.lastState.Attractors {
		vector.FillCircle(screen, float32(p.X), float32(p.Y), 5, attractorColor, true)
	}

	// 4. Draw UI Panel
	g.panel.Draw(screen)

	// Display timing breakdown for performance analysis
	stats := g.lastState.Stats
	msg := fmt.Sprintf("FPS: %.2f\nTPS: %.2f\n\nUpdate: %.2fms\nDraw:   %.2fms\nTotal:  %.2fms\n\nTick:   %d\nAgents: %d\nPoints: %d\nDepth:  %d\nSteer:  %.2fms\nMove:   %.2fms",
		ebiten.ActualFPS(),
		ebiten.ActualTPS(),
		g.updateAvg,
		g.drawAvg,
		g.updateAvg+g.drawAvg,
		stats.Tick,
		stats.Agents,
		stats.Attractors,
		stats.Depth,
		float64(stats.Compute.Microseconds())/1000,
		float64(stats.Integrate.Microseconds())/1000)
	// Print stats on the right side
	ebitenutil.DebugPrintAt(screen, msg, int(g.cfg.WorldWidth)-150, 10)
	if g.rejected != nil {
		ebitenutil.DebugPrintAt(screen, g.rejected.Error(), int(g.panel.X+g.panel.Width)+10, int(g.cfg.WorldHeight)-20)
	}
}

func (g *Game) Layout(w, h int) (int, int) { return int(g.cfg.WorldWidth), int(g.cfg.WorldHeight) }

func init() {
	// --- Boid Sprite Design (Sleek Arrow/Jet) ---
	design := []string{
		".......C.......",
		"......CWC......",
		"......CBC......",
		".....BBBBB.....",
		"....B.B.B.B....",
		"...D..B.B..D...",
		"..D...Y.Y...D..",
		".D....F.F....D.",
	}

	palette := map[rune]color.RGBA{
		'C': {R: 0, G: 255, B: 255, A: 255},   // Cyan Tip
		'W': {R: 255, G: 255, B: 255, A: 255}, // White Cockpit/Shine
		'B': {R: 0, G: 100, B: 255, A: 255},   // Main Blue Body
		'D': {R: 0, G: 0, B: 150, A: 255},     // Dark Blue Wings
		'Y': {R: 255, G: 200, B: 0, A: 255},   // Yellow Engine Ports
		'F': {R: 255, G: 100, B: 0, A: 200},   // Faint Engine Exhaust
	}

	boidSprite = generateSprite(design, palette)
}

// generateSprite converts an ASCII grid into an Ebiten image
func generateSprite(design []string, palette map[rune]color.RGBA) *ebiten.Image {
	h := len(design)
	w := len(design[0])
	img := ebiten.NewImage(w, h)

	for y, row := range design {
		for x, char := range row {
			if col, ok := palette[char]; ok {
				img.Set(x, y, col)
			}
		}
	}
	return img
}
