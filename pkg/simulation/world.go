package simulation

import (
	"time"

	"github.com/tochemey/goakt/v3/actor"
	"github.com/tochemey/goakt/v3/goaktpb"
	"google.golang.org/protobuf/types/known/durationpb"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// ShowQuadtreeKey is the live-update key toggling the quadtree overlay.
// It belongs to the actor, not to Config.
const ShowQuadtreeKey = "showQuadtree"

// WorldActor is the "Brain". It owns the simulation and serializes ticks,
// config updates and snapshots through its mailbox.
//
// Messages:
//   - *durationpb.Duration runs one tick with that time step
//   - *structpb.Struct merges a partial config update
//   - *emptypb.Empty asks for the latest TickStats, replied as a *structpb.Struct
type WorldActor struct {
	cfg        *Config
	attractors *Attractors
	sim        *Simulation

	// Communication with UI
	snapshotCh chan<- *WorldSnapshot
	showNodes  bool

	// --- Benchmark Stats ---
	tickCount   int
	lastLogTime time.Time
}

// NewWorldActor creates the world logic unit
func NewWorldActor(snapshotCh chan<- *WorldSnapshot, cfg *Config, attractors *Attractors) *WorldActor {
	return &WorldActor{
		cfg:         cfg,
		attractors:  attractors,
		snapshotCh:  snapshotCh,
		lastLogTime: time.Now(),
	}
}

func (w *WorldActor) PreStart(ctx *actor.Context) error {
	// The World is responsible for creating its inhabitants
	logger := ctx.ActorSystem().Logger()
	logger.Info("World is spawning the flock...")
	sim, err := New(w.cfg, w.attractors, logger)
	if err != nil {
		return err
	}
	w.sim = sim
	return nil
}

func (w *WorldActor) Receive(ctx *actor.ReceiveContext) {
	switch msg := ctx.Message().(type) {

	case *goaktpb.PostStart:
		ctx.Logger().Infof("World Started with %d agents", len(w.sim.Agents()))

	// The Main Simulation Step (Driven by Game Loop)
	case *durationpb.Duration:
		// 1. Telemetry
		w.logBenchmarks(ctx)

		// 2. Physics
		if _, err := w.sim.AdvanceTick(msg.AsDuration()); err != nil {
			ctx.Logger().Errorf("tick failed: %v", err)
			ctx.Err(err)
			return
		}

		// 3. UI Update
		w.pushSnapshot()

	// Handle dynamic slider updates from UI
	case *structpb.Struct:
		update := msg.AsMap()
		if show, ok := update[ShowQuadtreeKey].(bool); ok {
			w.showNodes = show
			delete(update, ShowQuadtreeKey)
		}
		if len(update) == 0 {
			return
		}
		if err := w.sim.ApplyConfig(update); err != nil {
			ctx.Logger().Warnf("config update rejected: %v", err)
		}

	case *emptypb.Empty:
		reply, err := w.sim.LastStats().Struct()
		if err != nil {
			ctx.Err(err)
			return
		}
		ctx.Response(reply)

	default:
		ctx.Unhandled()
	}
}

func (w *WorldActor) logBenchmarks(ctx *actor.ReceiveContext) {
	w.tickCount++
	if time.Since(w.lastLogTime) >= time.Second {
		stats := w.sim.LastStats()
		ctx.Logger().Infof("📊 TICK RATE: %d/sec | Agents: %d | Neighbors: %d | Depth: %d | Compute: %v | Integrate: %v",
			w.tickCount, stats.Agents, stats.Neighbors, stats.Depth, stats.Compute, stats.Integrate)
		w.tickCount = 0
		w.lastLogTime = time.Now()
	}
}

func (w *WorldActor) pushSnapshot() {
	if w.snapshotCh == nil {
		return
	}
	select {
	case w.snapshotCh <- w.sim.Snapshot(w.showNodes):
	default:
		// UI busy, skip frame
	}
}

func (w *WorldActor) PostStop(ctx *actor.Context) error {
	if w.sim == nil {
		return nil
	}
	ctx.ActorSystem().Logger().Infof("World is shutdown after %d ticks", w.sim.LastStats().Tick)
	return nil
}
