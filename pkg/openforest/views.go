package openforest

// Visibility tags how current a player's information on a planet is.
type Visibility string

const (
	VisibilityOwned   Visibility = "owned"
	VisibilityVisible Visibility = "visible"
	VisibilityStale   Visibility = "stale"
)

// PlanetView is the wire form of a planet. Owner is nil when unowned.
type PlanetView struct {
	ID           int     `json:"id"`
	X            float64 `json:"x"`
	Y            float64 `json:"y"`
	Level        int     `json:"level"`
	Energy       float64 `json:"energy"`
	EnergyCap    float64 `json:"energy_cap"`
	EnergyGrowth float64 `json:"energy_growth"`
	Silver       float64 `json:"silver"`
	SilverCap    float64 `json:"silver_cap"`
	SilverGrowth float64 `json:"silver_growth"`
	Defense      float64 `json:"defense"`
	Speed        float64 `json:"speed"`
	SensorRange  float64 `json:"sensor_range"`
	Owner        *int    `json:"owner"`
	IsArtifact   bool    `json:"is_artifact"`
}

// ObservedPlanet is a PlanetView as one player last saw it, tagged
// with how current the information is.
type ObservedPlanet struct {
	PlanetView
	Visibility   Visibility `json:"visibility"`
	LastSeenTick int        `json:"last_seen_tick"`
}

// FleetView is the wire form of an in-flight fleet, with its position
// interpolated along the source-to-destination line.
type FleetView struct {
	ID             int     `json:"id"`
	Owner          int     `json:"owner"`
	SourceID       int     `json:"source_id"`
	DestID         int     `json:"dest_id"`
	Energy         float64 `json:"energy"`
	TicksRemaining int     `json:"ticks_remaining"`
	TotalTicks     int     `json:"total_ticks"`
	X              float64 `json:"x"`
	Y              float64 `json:"y"`
}

// PingView is the wire form of a ping. The remaining ttl is server
// bookkeeping and deliberately not exposed.
type PingView struct {
	ID           int     `json:"id"`
	X            float64 `json:"x"`
	Y            float64 `json:"y"`
	Radius       float64 `json:"radius"`
	Strength     float64 `json:"strength"`
	SourcePlayer int     `json:"source_player"`
	Tick         int     `json:"tick"`
}

// ScoreView is one player's public scoreboard row.
type ScoreView struct {
	ID             int     `json:"id"`
	Name           string  `json:"name"`
	Score          float64 `json:"score"`
	TerritoryScore float64 `json:"territory_score"`
	ArtifactScore  float64 `json:"artifact_score"`
	ArtifactsHeld  int     `json:"artifacts_held"`
}

// Snapshot is the full post-tick world: what the replay records. Scans
// maps each player id to the planet ids their scans revealed this tick.
type Snapshot struct {
	Tick    int           `json:"tick"`
	Planets []PlanetView  `json:"planets"`
	Fleets  []FleetView   `json:"fleets"`
	Pings   []PingView    `json:"pings"`
	Scores  []ScoreView   `json:"scores"`
	Scans   map[int][]int `json:"scans"`
}

// Observation is the fog-of-war view delivered to one player each tick.
type Observation struct {
	Tick       int              `json:"tick"`
	PlayerID   int              `json:"player_id"`
	Planets    []ObservedPlanet `json:"planets"`
	Fleets     []FleetView      `json:"fleets"`
	Pings      []PingView       `json:"pings"`
	Scores     []ScoreView      `json:"scores"`
	MaxActions int              `json:"max_actions"`
	MatchTicks int              `json:"match_ticks"`
	TickMs     int              `json:"tick_ms"`
}

// WorldView is the unfiltered counterpart of Observation, served to
// omniscient spectators. PlayerID is always null on the wire.
type WorldView struct {
	Tick       int          `json:"tick"`
	PlayerID   *int         `json:"player_id"`
	Planets    []PlanetView `json:"planets"`
	Fleets     []FleetView  `json:"fleets"`
	Pings      []PingView   `json:"pings"`
	Scores     []ScoreView  `json:"scores"`
	MaxActions int          `json:"max_actions"`
	MatchTicks int          `json:"match_ticks"`
	TickMs     int          `json:"tick_ms"`
}

func (p *Planet) view() PlanetView {
	v := PlanetView{
		ID:           p.ID,
		X:            p.X,
		Y:            p.Y,
		Level:        p.Level,
		Energy:       p.Energy,
		EnergyCap:    p.EnergyCap,
		EnergyGrowth: p.EnergyGrowth,
		Silver:       p.Silver,
		SilverCap:    p.SilverCap,
		SilverGrowth: p.SilverGrowth,
		Defense:      p.Defense,
		Speed:        p.Speed,
		SensorRange:  p.SensorRange,
		IsArtifact:   p.IsArtifact,
	}
	if p.Owner != NoOwner {
		owner := p.Owner
		v.Owner = &owner
	}
	return v
}

// fleetView interpolates the fleet's current position from its travel
// progress.
func (s *State) fleetView(f *Fleet) FleetView {
	source := s.planetAt(f.SourceID)
	dest := s.planetAt(f.DestID)
	progress := 1.0 - float64(f.TicksRemaining)/float64(f.TotalTicks)
	return FleetView{
		ID:             f.ID,
		Owner:          f.Owner,
		SourceID:       f.SourceID,
		DestID:         f.DestID,
		Energy:         f.Energy,
		TicksRemaining: f.TicksRemaining,
		TotalTicks:     f.TotalTicks,
		X:              source.X + (dest.X-source.X)*progress,
		Y:              source.Y + (dest.Y-source.Y)*progress,
	}
}

func (g *Ping) view() PingView {
	return PingView{
		ID:           g.ID,
		X:            g.X,
		Y:            g.Y,
		Radius:       g.Radius,
		Strength:     g.Strength,
		SourcePlayer: g.SourcePlayer,
		Tick:         g.Tick,
	}
}

func (p *PlayerState) scoreView() ScoreView {
	return ScoreView{
		ID:             p.ID,
		Name:           p.Name,
		Score:          p.Score,
		TerritoryScore: p.TerritoryScore,
		ArtifactScore:  p.ArtifactScore,
		ArtifactsHeld:  p.ArtifactsHeld,
	}
}

func (s *State) buildSnapshot(scans map[int][]int) *Snapshot {
	snap := &Snapshot{
		Tick:    s.Tick,
		Planets: make([]PlanetView, 0, len(s.Planets)),
		Fleets:  make([]FleetView, 0, len(s.Fleets)),
		Pings:   make([]PingView, 0, len(s.Pings)),
		Scores:  make([]ScoreView, 0, len(s.Players)),
		Scans:   scans,
	}
	for i := range s.Planets {
		snap.Planets = append(snap.Planets, s.Planets[i].view())
	}
	for i := range s.Fleets {
		snap.Fleets = append(snap.Fleets, s.fleetView(&s.Fleets[i]))
	}
	for i := range s.Pings {
		snap.Pings = append(snap.Pings, s.Pings[i].view())
	}
	for i := range s.Players {
		snap.Scores = append(snap.Scores, s.Players[i].scoreView())
	}
	return snap
}
