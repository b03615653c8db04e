package openforest

import (
	"math/rand"
	"sort"
)

// levelDistribution is the roll table for planet levels; chances are
// cumulative in order, and a roll past the table falls through to 1.
var levelDistribution = []struct {
	level  int
	chance float64
}{
	{1, 0.4},
	{2, 0.25},
	{3, 0.2},
	{4, 0.1},
	{5, 0.05},
}

// generateWorld builds the initial planet field, assigns player homes,
// and seeds artifacts. Every draw comes from the one PRNG seeded with
// config.seed, in a fixed order, so equal seeds give equal worlds.
func (s *State) generateWorld() {
	rng := rand.New(rand.NewSource(s.Config.Seed))

	s.Planets = make([]Planet, 0, s.Config.PlanetCount)
	for id := 0; id < s.Config.PlanetCount; id++ {
		x := uniform(rng, -1, 1)
		y := uniform(rng, -1, 1)
		level := rollLevel(rng)
		stats := StatsForLevel(level)
		s.Planets = append(s.Planets, Planet{
			ID:           id,
			X:            x,
			Y:            y,
			Level:        level,
			Energy:       stats.EnergyCap * 0.5,
			EnergyCap:    stats.EnergyCap,
			EnergyGrowth: stats.EnergyGrowth,
			Silver:       stats.SilverCap * 0.4,
			SilverCap:    stats.SilverCap,
			SilverGrowth: stats.SilverGrowth,
			Defense:      stats.Defense,
			Speed:        stats.Speed,
			SensorRange:  stats.SensorRange,
			Owner:        NoOwner,
		})
	}

	s.assignHomePlanets(rng)
	s.assignArtifacts(rng)
}

func rollLevel(rng *rand.Rand) int {
	roll := rng.Float64()
	cumulative := 0.0
	for _, entry := range levelDistribution {
		cumulative += entry.chance
		if roll <= cumulative {
			return entry.level
		}
	}
	return 1
}

// assignHomePlanets picks one home per player from a shuffled candidate
// order, greedily keeping homes at least PlayerHomeMinDistance apart.
// When the map cannot satisfy the constraint, the remaining homes are
// filled from the same shuffled order without the distance check.
func (s *State) assignHomePlanets(rng *rand.Rand) {
	candidates := make([]int, len(s.Planets))
	for i := range candidates {
		candidates[i] = i
	}
	rng.Shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})

	minDist := s.Config.PlayerHomeMinDistance
	chosen := make([]int, 0, len(s.Players))
	isChosen := make(map[int]bool, len(s.Players))

	for _, id := range candidates {
		c := s.planetAt(id)
		tooClose := false
		for _, homeID := range chosen {
			home := s.planetAt(homeID)
			if Distance(c.X, c.Y, home.X, home.Y) < minDist {
				tooClose = true
				break
			}
		}
		if tooClose {
			continue
		}
		chosen = append(chosen, id)
		isChosen[id] = true
		if len(chosen) == len(s.Players) {
			break
		}
	}
	if len(chosen) < len(s.Players) {
		for _, id := range candidates {
			if isChosen[id] {
				continue
			}
			chosen = append(chosen, id)
			isChosen[id] = true
			if len(chosen) == len(s.Players) {
				break
			}
		}
	}

	for i := range s.Players {
		if i >= len(chosen) {
			break
		}
		home := s.planetAt(chosen[i])
		stats := StatsForLevel(3)
		home.Level = 3
		home.EnergyCap = stats.EnergyCap
		home.EnergyGrowth = stats.EnergyGrowth
		home.SilverCap = stats.SilverCap
		home.SilverGrowth = stats.SilverGrowth
		home.Defense = stats.Defense
		home.Speed = stats.Speed
		home.SensorRange = stats.SensorRange
		home.Energy = home.EnergyCap * 0.8
		home.Silver = home.SilverCap * 0.5
		home.Owner = s.Players[i].ID
	}
}

// assignArtifacts flags artifact planets among the highest-level
// unowned planets: sort by level descending (stable, so ties keep id
// order), shuffle the top slice, and mark the first ArtifactCount.
func (s *State) assignArtifacts(rng *rand.Rand) {
	candidates := make([]int, 0, len(s.Planets))
	for i := range s.Planets {
		if s.Planets[i].Owner == NoOwner {
			candidates = append(candidates, i)
		}
	}
	sort.SliceStable(candidates, func(a, b int) bool {
		return s.Planets[candidates[a]].Level > s.Planets[candidates[b]].Level
	})

	n := s.Config.ArtifactCount * 4
	if n < s.Config.ArtifactCount {
		n = s.Config.ArtifactCount
	}
	if n > len(candidates) {
		n = len(candidates)
	}
	if n < 0 {
		n = 0
	}
	top := candidates[:n]
	rng.Shuffle(len(top), func(i, j int) {
		top[i], top[j] = top[j], top[i]
	})

	count := s.Config.ArtifactCount
	if count > len(top) {
		count = len(top)
	}
	for _, id := range top[:count] {
		s.Planets[id].IsArtifact = true
	}
}
