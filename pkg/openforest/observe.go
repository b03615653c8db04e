package openforest

// ObservationFor projects the world onto one player's sensors. scans
// lists the planet ids revealed to this player by scan actions this
// tick (nil before the first tick). Planets currently visible refresh
// the player's known-planets cache; planets that have left visibility
// are served from the cache, tagged stale, with their last fresh data.
// playerID must be a valid player id.
func (s *State) ObservationFor(playerID int, scans []int) *Observation {
	player := &s.Players[playerID]

	owned := make([]*Planet, 0)
	for i := range s.Planets {
		if s.Planets[i].Owner == playerID {
			owned = append(owned, &s.Planets[i])
		}
	}

	visible := make(map[int]bool, len(scans)+len(owned))
	for _, id := range scans {
		visible[id] = true
	}
	for _, p := range owned {
		visible[p.ID] = true
	}
	for _, p := range owned {
		for i := range s.Planets {
			other := &s.Planets[i]
			if Distance(p.X, p.Y, other.X, other.Y) <= p.SensorRange {
				visible[other.ID] = true
			}
		}
	}

	planets := make([]ObservedPlanet, 0, len(visible))
	for i := range s.Planets {
		p := &s.Planets[i]
		if visible[p.ID] {
			op := ObservedPlanet{
				PlanetView:   p.view(),
				Visibility:   VisibilityVisible,
				LastSeenTick: s.Tick,
			}
			if p.Owner == playerID {
				op.Visibility = VisibilityOwned
			}
			player.Known[p.ID] = op
			planets = append(planets, op)
		} else if cached, ok := player.Known[p.ID]; ok {
			cached.Visibility = VisibilityStale
			planets = append(planets, cached)
		}
	}

	fleets := make([]FleetView, 0)
	for i := range s.Fleets {
		fv := s.fleetView(&s.Fleets[i])
		for _, p := range owned {
			if Distance(fv.X, fv.Y, p.X, p.Y) <= p.SensorRange {
				fleets = append(fleets, fv)
				break
			}
		}
	}

	pings := make([]PingView, 0)
	for i := range s.Pings {
		g := &s.Pings[i]
		for _, p := range owned {
			if Distance(g.X, g.Y, p.X, p.Y) <= p.SensorRange {
				pings = append(pings, g.view())
				break
			}
		}
	}

	scores := make([]ScoreView, 0, len(s.Players))
	for i := range s.Players {
		scores = append(scores, s.Players[i].scoreView())
	}

	return &Observation{
		Tick:       s.Tick,
		PlayerID:   playerID,
		Planets:    planets,
		Fleets:     fleets,
		Pings:      pings,
		Scores:     scores,
		MaxActions: s.Config.MaxActionsPerTick,
		MatchTicks: s.Config.MatchTicks,
		TickMs:     s.Config.TickMs,
	}
}

// OmniscientObservation returns the whole world unfiltered, for
// spectators that have not chosen a player perspective.
func (s *State) OmniscientObservation() *WorldView {
	w := &WorldView{
		Tick:       s.Tick,
		Planets:    make([]PlanetView, 0, len(s.Planets)),
		Fleets:     make([]FleetView, 0, len(s.Fleets)),
		Pings:      make([]PingView, 0, len(s.Pings)),
		Scores:     make([]ScoreView, 0, len(s.Players)),
		MaxActions: s.Config.MaxActionsPerTick,
		MatchTicks: s.Config.MatchTicks,
		TickMs:     s.Config.TickMs,
	}
	for i := range s.Planets {
		w.Planets = append(w.Planets, s.Planets[i].view())
	}
	for i := range s.Fleets {
		w.Fleets = append(w.Fleets, s.fleetView(&s.Fleets[i]))
	}
	for i := range s.Pings {
		w.Pings = append(w.Pings, s.Pings[i].view())
	}
	for i := range s.Players {
		w.Scores = append(w.Scores, s.Players[i].scoreView())
	}
	return w
}
