package main

import (
	"context"
	"flag"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/lao-tseu-is-alive/go-boids-quadtree/pkg/game"
	"github.com/lao-tseu-is-alive/go-boids-quadtree/pkg/simulation"
	"github.com/tochemey/goakt/v3/actor"
	"github.com/tochemey/goakt/v3/log"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

func main() {
	configFile := flag.String("config", "", "path to a JSON config file, defaults are used when empty")
	flag.Parse()

	ctx := context.Background()
	logger := log.DefaultLogger

	cfg := simulation.DefaultConfig()
	if *configFile != "" {
		var err error
		if cfg, err = simulation.LoadConfig(*configFile); err != nil {
			logger.Fatalf("loading config: %v", err)
		}
	}

	system, err := actor.NewActorSystem("BoidsWorld", actor.WithLogger(logger))
	if err != nil {
		logger.Fatalf("creating actor system: %v", err)
	}
	if err := system.Start(ctx); err != nil {
		logger.Fatalf("starting actor system: %v", err)
	}
	defer system.Stop(ctx)

	g, err := game.GetNewGame(ctx, cfg, system)
	if err != nil {
		logger.Fatalf("%v", err)
	}

	ebiten.SetWindowSize(int(cfg.WorldWidth), int(cfg.WorldHeight))
	ebiten.SetWindowTitle("Boids: quadtree flocking")

	if err := ebiten.RunGame(g); err != nil {
		logger.Errorf("game stopped: %v", err)
	}

	logFinalStats(ctx, logger, g.WorldPID())
}

// logFinalStats asks the world for the statistics of its last tick.
func logFinalStats(ctx context.Context, logger log.Logger, world *actor.PID) {
	reply, err := actor.Ask(ctx, world, &emptypb.Empty{}, time.Second)
	if err != nil {
		logger.Warnf("could not read final stats: %v", err)
		return
	}
	if stats, ok := reply.(*structpb.Struct); ok {
		logger.Infof("final stats: %v", stats.AsMap())
	}
}
