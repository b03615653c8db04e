package openforest

import (
	"math"
	"sort"
)

// AdvanceTick runs one simulation step over the verified actions for
// this tick and returns the post-tick snapshot. The phases run in a
// fixed order; reordering any of them changes match outcomes. The
// snapshot carries the tick number just completed; the counter
// increments afterwards.
func (s *State) AdvanceTick(actionsByPlayer map[int][]Action) *Snapshot {
	s.applyGrowth()
	scans := s.processActions(actionsByPlayer)
	s.moveFleets()
	s.resolveArrivals()
	s.decayPings()
	s.emitArtifactPings()
	s.updateScores()
	snapshot := s.buildSnapshot(scans)
	s.Tick++
	return snapshot
}

func (s *State) applyGrowth() {
	for i := range s.Planets {
		p := &s.Planets[i]
		p.Energy = Clamp(p.Energy+p.EnergyGrowth, 0, p.EnergyCap)
		p.Silver = Clamp(p.Silver+p.SilverGrowth, 0, p.SilverCap)
	}
}

// processActions dispatches each player's actions in ascending player
// id order, honoring the per-tick action cap, and returns the planet
// ids revealed to each player by scans. Unknown action types consume
// their slot and do nothing.
func (s *State) processActions(actionsByPlayer map[int][]Action) map[int][]int {
	scans := make(map[int][]int, len(s.Players))
	for i := range s.Players {
		scans[s.Players[i].ID] = []int{}
	}

	playerIDs := make([]int, 0, len(actionsByPlayer))
	for id := range actionsByPlayer {
		playerIDs = append(playerIDs, id)
	}
	sort.Ints(playerIDs)

	for _, playerID := range playerIDs {
		if playerID < 0 || playerID >= len(s.Players) {
			continue
		}
		actions := actionsByPlayer[playerID]
		if len(actions) > s.Config.MaxActionsPerTick {
			actions = actions[:s.Config.MaxActionsPerTick]
		}
		for _, action := range actions {
			switch action.Type {
			case ActionScan:
				scans[playerID] = append(scans[playerID], s.handleScan(playerID, action)...)
			case ActionSendFleet:
				s.handleSendFleet(playerID, action)
			case ActionUpgrade:
				s.handleUpgrade(playerID, action)
			}
		}
	}
	return scans
}

// handleScan charges the scan to the player's owned planet nearest the
// scan center (lowest id on ties) and returns every planet id within
// the radius. A player with no planets, or a source without the energy
// to pay, scans nothing.
func (s *State) handleScan(playerID int, action Action) []int {
	cost := 8.0 * action.Radius

	var source *Planet
	bestDist := 0.0
	for i := range s.Planets {
		p := &s.Planets[i]
		if p.Owner != playerID {
			continue
		}
		d := Distance(p.X, p.Y, action.X, action.Y)
		if source == nil || d < bestDist {
			source = p
			bestDist = d
		}
	}
	if source == nil || source.Energy < cost {
		return nil
	}
	source.Energy -= cost

	var revealed []int
	for i := range s.Planets {
		if Distance(s.Planets[i].X, s.Planets[i].Y, action.X, action.Y) <= action.Radius {
			revealed = append(revealed, s.Planets[i].ID)
		}
	}
	return revealed
}

// handleSendFleet validates and launches a fleet, deducting its energy
// from the source immediately. Rejections are silent: same source and
// destination, out-of-range ids, a source the player does not own, and
// non-positive or unavailable energy all drop the action.
func (s *State) handleSendFleet(playerID int, action Action) {
	if action.FromID == action.ToID {
		return
	}
	if action.FromID < 0 || action.FromID >= len(s.Planets) ||
		action.ToID < 0 || action.ToID >= len(s.Planets) {
		return
	}
	source := s.planetAt(action.FromID)
	if source.Owner != playerID {
		return
	}
	if action.Energy <= 0 || action.Energy > source.Energy {
		return
	}

	dest := s.planetAt(action.ToID)
	dist := Distance(source.X, source.Y, dest.X, dest.Y)
	travelTicks := int(math.Ceil(dist / (source.Speed * s.Config.SpeedConst)))
	if travelTicks < 1 {
		travelTicks = 1
	}
	source.Energy -= action.Energy

	fleet := Fleet{
		ID:             s.nextFleetID,
		Owner:          playerID,
		SourceID:       action.FromID,
		DestID:         action.ToID,
		Energy:         action.Energy,
		LaunchTick:     s.Tick,
		TotalTicks:     travelTicks,
		TicksRemaining: travelTicks,
	}
	s.nextFleetID++
	s.Fleets = append(s.Fleets, fleet)
	s.emitFleetPing(fleet)
}

// handleUpgrade spends silver to improve one planet attribute. The
// cost is paid even for an unknown upgrade kind.
func (s *State) handleUpgrade(playerID int, action Action) {
	if action.PlanetID < 0 || action.PlanetID >= len(s.Planets) {
		return
	}
	planet := s.planetAt(action.PlanetID)
	if planet.Owner != playerID {
		return
	}
	cost := float64(15 + planet.Level*12)
	if planet.Silver < cost {
		return
	}
	planet.Silver -= cost

	l := float64(planet.Level)
	switch action.Upgrade {
	case UpgradeEnergy:
		planet.EnergyCap += 12 + l*3
		planet.EnergyGrowth += 0.2 + l*0.05
	case UpgradeSilver:
		planet.SilverCap += 10 + l*3
		planet.SilverGrowth += 0.15 + l*0.05
	case UpgradeDefense:
		planet.Defense += 0.15 + l*0.04
	case UpgradeSpeed:
		planet.Speed += 0.04 + l*0.01
	case UpgradeSensor:
		planet.SensorRange += 0.04 + l*0.01
	}
}

func (s *State) moveFleets() {
	for i := range s.Fleets {
		s.Fleets[i].TicksRemaining--
	}
}

// resolveArrivals lands every fleet that has run out of travel ticks,
// in fleet id order, then drops the arrived fleets from the live list.
// A friendly or unowned destination is reinforced; a hostile one
// fights.
func (s *State) resolveArrivals() {
	arrived := make([]Fleet, 0)
	for _, f := range s.Fleets {
		if f.TicksRemaining <= 0 {
			arrived = append(arrived, f)
		}
	}
	sort.Slice(arrived, func(i, j int) bool { return arrived[i].ID < arrived[j].ID })

	for _, fleet := range arrived {
		dest := s.planetAt(fleet.DestID)
		if dest.Owner == NoOwner || dest.Owner == fleet.Owner {
			dest.Owner = fleet.Owner
			dest.Energy = Clamp(dest.Energy+fleet.Energy, 0, dest.EnergyCap)
		} else {
			s.resolveCombat(dest, fleet)
		}
	}

	live := s.Fleets[:0]
	for _, f := range s.Fleets {
		if f.TicksRemaining > 0 {
			live = append(live, f)
		}
	}
	s.Fleets = live
}

// resolveCombat applies an attacking fleet to a hostile destination.
// Damage is the fleet's energy divided by the defense factor. The
// planet falls when its post-damage energy drops below the capture
// threshold, and whatever survives of the fleet garrisons it.
func (s *State) resolveCombat(dest *Planet, fleet Fleet) {
	defenseFactor := 1.0 + dest.Defense*s.Config.DefenseMultiplier
	damage := fleet.Energy / defenseFactor
	dest.Energy -= damage
	captureThreshold := dest.EnergyCap * s.Config.CaptureThresholdFraction
	if dest.Energy < captureThreshold {
		dest.Owner = fleet.Owner
		leftover := math.Max(0, fleet.Energy-damage)
		dest.Energy = Clamp(leftover, 0, dest.EnergyCap)
	} else {
		dest.Energy = Clamp(dest.Energy, 0, dest.EnergyCap)
	}
}

// emitFleetPing publishes the sensor echo of a fleet launch. The
// jitter PRNG is keyed by (seed, "ping", tick, fleet id) so the ping
// reproduces exactly regardless of what else has drawn randomness.
func (s *State) emitFleetPing(fleet Fleet) {
	source := s.planetAt(fleet.SourceID)
	rng := DeterministicRNG(s.Config.Seed, "ping", s.Tick, fleet.ID)
	jitterX := uniform(rng, -s.Config.PingJitter, s.Config.PingJitter)
	jitterY := uniform(rng, -s.Config.PingJitter, s.Config.PingJitter)

	radius := s.Config.PingBaseRadius + math.Sqrt(fleet.Energy)*0.01
	strength := s.Config.PingBaseStrength + math.Sqrt(fleet.Energy)*0.02
	if source.IsArtifact {
		radius += s.Config.ArtifactPingRadius * 0.5
		strength += s.Config.ArtifactPingStrength * 0.8
	}

	s.Pings = append(s.Pings, Ping{
		ID:           s.nextPingID,
		X:            source.X + jitterX,
		Y:            source.Y + jitterY,
		Radius:       radius,
		Strength:     strength,
		SourcePlayer: fleet.Owner,
		Tick:         s.Tick,
		TTL:          s.Config.PingTTLTicks,
	})
	s.nextPingID++
}

func (s *State) decayPings() {
	live := s.Pings[:0]
	for i := range s.Pings {
		s.Pings[i].TTL--
		if s.Pings[i].TTL > 0 {
			live = append(live, s.Pings[i])
		}
	}
	s.Pings = live
}

// emitArtifactPings broadcasts a one-tick beacon from every owned
// artifact planet at its exact position. Holding an artifact is never
// a secret.
func (s *State) emitArtifactPings() {
	for i := range s.Planets {
		p := &s.Planets[i]
		if !p.IsArtifact || p.Owner == NoOwner {
			continue
		}
		s.Pings = append(s.Pings, Ping{
			ID:           s.nextPingID,
			X:            p.X,
			Y:            p.Y,
			Radius:       s.Config.ArtifactPingRadius,
			Strength:     s.Config.ArtifactPingStrength,
			SourcePlayer: p.Owner,
			Tick:         s.Tick,
			TTL:          1,
		})
		s.nextPingID++
	}
}

// updateScores accrues per-tick territory and artifact points. Scores
// only ever grow.
func (s *State) updateScores() {
	for i := range s.Players {
		player := &s.Players[i]

		caps := make([]float64, 0)
		artifacts := 0
		for j := range s.Planets {
			if s.Planets[j].Owner != player.ID {
				continue
			}
			caps = append(caps, s.Planets[j].EnergyCap)
			if s.Planets[j].IsArtifact {
				artifacts++
			}
		}
		sort.Sort(sort.Reverse(sort.Float64Slice(caps)))

		n := s.Config.ScoreTopN
		if n > len(caps) {
			n = len(caps)
		}
		territoryGain := 0.0
		for _, c := range caps[:n] {
			territoryGain += c
		}
		territoryGain /= 1000.0

		player.ArtifactsHeld = artifacts
		player.TerritoryScore += territoryGain
		player.ArtifactScore += float64(artifacts) * s.Config.ArtifactPointsPerTick
		player.Score = player.TerritoryScore + player.ArtifactScore
	}
}
