package openforest

// NoOwner marks a planet no player controls. Wire views render it as
// JSON null.
const NoOwner = -1

// Planet is a persistent map location. Planets are created once at
// generation, never destroyed, and mutated only by the tick pipeline.
type Planet struct {
	ID           int
	X            float64
	Y            float64
	Level        int
	Energy       float64
	EnergyCap    float64
	EnergyGrowth float64
	Silver       float64
	SilverCap    float64
	SilverGrowth float64
	Defense      float64
	Speed        float64
	SensorRange  float64
	Owner        int
	IsArtifact   bool
}

// Fleet is an in-flight energy shipment between two planets.
type Fleet struct {
	ID             int
	Owner          int
	SourceID       int
	DestID         int
	Energy         float64
	LaunchTick     int
	TotalTicks     int
	TicksRemaining int
}

// Ping is a decaying sensory event: the echo of a fleet launch or the
// beacon of an owned artifact.
type Ping struct {
	ID           int
	X            float64
	Y            float64
	Radius       float64
	Strength     float64
	SourcePlayer int
	Tick         int
	TTL          int
}

// PlayerState tracks one player's accumulated scores and their private
// known-planets cache. Cache entries are refreshed whenever a planet
// enters visibility and never evicted.
type PlayerState struct {
	ID             int
	Name           string
	Score          float64
	TerritoryScore float64
	ArtifactScore  float64
	ArtifactsHeld  int
	Known          map[int]ObservedPlanet
}

// State is the authoritative world for one match. All mutation happens
// on the single goroutine driving AdvanceTick; nothing here is safe
// for concurrent use.
type State struct {
	Config  MatchConfig
	Tick    int
	Planets []Planet
	Fleets  []Fleet
	Pings   []Ping
	Players []PlayerState

	nextFleetID int
	nextPingID  int
}

// NewState generates the initial world for the given players. Player
// ids are assigned by position in playerNames.
func NewState(cfg MatchConfig, playerNames []string) *State {
	s := &State{
		Config:      cfg,
		Players:     make([]PlayerState, len(playerNames)),
		nextFleetID: 1,
		nextPingID:  1,
	}
	for i, name := range playerNames {
		s.Players[i] = PlayerState{ID: i, Name: name, Known: make(map[int]ObservedPlanet)}
	}
	s.generateWorld()
	return s
}

// planetAt returns the planet with the given id, which is also its
// index in Planets.
func (s *State) planetAt(id int) *Planet {
	return &s.Planets[id]
}
