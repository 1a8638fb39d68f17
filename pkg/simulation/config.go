package simulation

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"slices"

	"github.com/lao-tseu-is-alive/go-boids-quadtree/pkg/behavior"
	"github.com/lao-tseu-is-alive/go-boids-quadtree/pkg/geometry"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"go.uber.org/multierr"
)

// ErrInvalidConfig wraps every configuration problem found before the first tick.
var ErrInvalidConfig = errors.New("invalid configuration")

//go:embed config.schema.json
var configSchema string

const configSchemaURL = "https://github.com/lao-tseu-is-alive/go-boids-quadtree/config.schema.json"

// Spawn patterns accepted in Config.SpawnPattern.
const (
	SpawnRandom = "random"
	SpawnPerlin = "perlin"
)

// fixedKeys are read once at startup, live updates leave them alone.
var fixedKeys = []string{
	"worldWidth", "worldHeight", "boundaryPadding", "agentCount",
	"nodeCapacity", "workers", "spawnPattern", "seed",
}

type Config struct {
	// World Dimensions
	WorldWidth      float64 `json:"worldWidth"`
	WorldHeight     float64 `json:"worldHeight"`
	BoundaryPadding float64 `json:"boundaryPadding"` // extra room around the world covered by the quadtree

	// Population and spatial index
	AgentCount   int `json:"agentCount"`
	NodeCapacity int `json:"nodeCapacity"`

	// Boids flocking parameters
	SeparationFactor float64 `json:"separationFactor"`
	AlignmentFactor  float64 `json:"alignmentFactor"`
	CohesionFactor   float64 `json:"cohesionFactor"`
	PerceptionRange  float64 `json:"perceptionRange"` // How far can they see?
	ProtectedRange   float64 `json:"protectedRange"`  // Personal space radius
	MinSpeed         float64 `json:"minSpeed"`
	MaxSpeed         float64 `json:"maxSpeed"`
	TurnFactor       float64 `json:"turnFactor"` // Edge turning strength
	EdgeMargin       float64 `json:"edgeMargin"`

	// Attraction points placed by the user
	AttractionPointFactor float64 `json:"attractionPointFactor"`
	AttractionStride      int     `json:"attractionStride"` // every n-th agent is attracted

	// Runtime
	Workers      int    `json:"workers"` // 0 means GOMAXPROCS
	SpawnPattern string `json:"spawnPattern"`
	Seed         uint64 `json:"seed"` // 0 picks a random seed
}

func DefaultConfig() *Config {
	return &Config{
		WorldWidth:            920,
		WorldHeight:           920,
		BoundaryPadding:       100,
		AgentCount:            1000,
		NodeCapacity:          8,
		SeparationFactor:      0.3,
		AlignmentFactor:       0.075,
		CohesionFactor:        0.055,
		PerceptionRange:       60.0,
		ProtectedRange:        12.0,
		MinSpeed:              5.0,
		MaxSpeed:              5.1,
		TurnFactor:            0.4,
		EdgeMargin:            100,
		AttractionPointFactor: 0.1,
		AttractionStride:      2,
		Workers:               0,
		SpawnPattern:          SpawnRandom,
	}
}

// LoadConfig loads configuration from a JSON file and validates it against the schema.
// Keys missing from the file keep their DefaultConfig value.
func LoadConfig(configFile string) (*Config, error) {
	b, err := os.ReadFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	cfg, err := ParseConfig(b)
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", configFile, err)
	}
	return cfg, nil
}

// ParseConfig validates raw JSON against the schema, decodes it over the
// defaults and checks the cross-field rules.
func ParseConfig(raw []byte) (*Config, error) {
	// 1. Validate the document shape
	var doc interface{}
	if err := decodeNumbers(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: failed to decode config json: %w", ErrInvalidConfig, err)
	}
	if err := validateDocument(doc); err != nil {
		return nil, err
	}

	// 2. Unmarshal into the struct, over the defaults
	cfg := DefaultConfig()
	if err := json.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("%w: failed to unmarshal config: %w", ErrInvalidConfig, err)
	}

	// 3. Rules the schema cannot express
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validateDocument(doc interface{}) error {
	sch, err := jsonschema.CompileString(configSchemaURL, configSchema)
	if err != nil {
		return fmt.Errorf("failed to compile schema: %w", err)
	}
	if err := sch.Validate(doc); err != nil {
		return fmt.Errorf("%w: config validation failed: %w", ErrInvalidConfig, err)
	}
	return nil
}

// decodeNumbers keeps numbers as json.Number so large seeds survive a round trip.
func decodeNumbers(raw []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	return dec.Decode(v)
}

// Validate checks every rule at once and reports all violations together.
func (c *Config) Validate() error {
	var err error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			err = multierr.Append(err, fmt.Errorf(format, args...))
		}
	}

	check(c.WorldWidth > 0 && c.WorldHeight > 0, "world size must be positive, got %vx%v", c.WorldWidth, c.WorldHeight)
	check(c.BoundaryPadding >= 0, "boundaryPadding must not be negative, got %v", c.BoundaryPadding)
	check(c.AgentCount >= 0, "agentCount must not be negative, got %d", c.AgentCount)
	check(c.NodeCapacity >= 1, "nodeCapacity must be at least 1, got %d", c.NodeCapacity)
	check(c.SeparationFactor >= 0 && c.AlignmentFactor >= 0 && c.CohesionFactor >= 0,
		"flocking factors must not be negative")
	check(c.TurnFactor >= 0, "turnFactor must not be negative, got %v", c.TurnFactor)
	check(c.AttractionPointFactor >= 0, "attractionPointFactor must not be negative, got %v", c.AttractionPointFactor)
	check(c.PerceptionRange > 0, "perceptionRange must be positive, got %v", c.PerceptionRange)
	check(c.ProtectedRange >= 0 && c.ProtectedRange < c.PerceptionRange,
		"protectedRange %v must be in [0, perceptionRange %v)", c.ProtectedRange, c.PerceptionRange)
	check(c.MinSpeed >= 0, "minSpeed must not be negative, got %v", c.MinSpeed)
	check(c.MaxSpeed > 0, "maxSpeed must be positive, got %v", c.MaxSpeed)
	check(c.MinSpeed <= c.MaxSpeed, "minSpeed %v is greater than maxSpeed %v", c.MinSpeed, c.MaxSpeed)
	check(c.EdgeMargin >= 0, "edgeMargin must not be negative, got %v", c.EdgeMargin)
	check(c.AttractionStride >= 1, "attractionStride must be at least 1, got %d", c.AttractionStride)
	check(c.Workers >= 0, "workers must not be negative, got %d", c.Workers)
	check(c.SpawnPattern == SpawnRandom || c.SpawnPattern == SpawnPerlin,
		"unknown spawnPattern %q", c.SpawnPattern)

	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// Apply merges a partial update, such as the values of the UI sliders,
// into c. Keys fixed at startup are ignored. The update is validated as a
// whole and c is left untouched when it is rejected.
func (c *Config) Apply(update map[string]any) error {
	current, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	var merged map[string]any
	if err := decodeNumbers(current, &merged); err != nil {
		return fmt.Errorf("failed to decode config: %w", err)
	}
	for k, v := range update {
		if slices.Contains(fixedKeys, k) {
			continue
		}
		merged[k] = v
	}

	raw, err := json.Marshal(merged)
	if err != nil {
		return fmt.Errorf("%w: failed to encode update: %w", ErrInvalidConfig, err)
	}
	next, err := ParseConfig(raw)
	if err != nil {
		return err
	}
	*c = *next
	return nil
}

// Area is the simulation area, anchored at the origin.
func (c *Config) Area() geometry.Rectangle {
	return geometry.RectangleFromCorners(geometry.Zero, geometry.Vector2D{X: c.WorldWidth, Y: c.WorldHeight})
}

// IndexBounds is the region covered by the quadtree root.
func (c *Config) IndexBounds() geometry.Rectangle {
	return c.Area().Inflate(c.BoundaryPadding)
}

// FlockParams returns the flocking rules described by the config.
func (c *Config) FlockParams() behavior.Params {
	return behavior.Params{
		PerceptionRange:       c.PerceptionRange,
		ProtectedRange:        c.ProtectedRange,
		SeparationFactor:      c.SeparationFactor,
		AlignmentFactor:       c.AlignmentFactor,
		CohesionFactor:        c.CohesionFactor,
		TurnFactor:            c.TurnFactor,
		AttractionPointFactor: c.AttractionPointFactor,
		AttractionStride:      c.AttractionStride,
		MinSpeed:              c.MinSpeed,
		MaxSpeed:              c.MaxSpeed,
		Area:                  c.Area(),
		EdgeMargin:            c.EdgeMargin,
	}
}
