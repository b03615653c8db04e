package bot

import (
	"math"

	"github.com/freeeve/openforest/pkg/openforest"
)

// RushStrategy throws most of its strongest planet's energy at the
// nearest enemy planet every tick, falling back to neutrals when no
// enemy is visible.
type RushStrategy struct{}

func (RushStrategy) Name() string { return "rush" }

func (RushStrategy) Act(obs *openforest.Observation) []openforest.Action {
	owned := ownedPlanets(obs)
	if len(owned) == 0 {
		return nil
	}
	source := richestPlanet(owned)

	pool := enemyPlanets(obs)
	if len(pool) == 0 {
		pool = neutralPlanets(obs)
	}
	if len(pool) == 0 {
		return nil
	}
	target := nearestPlanet(pool, source.X, source.Y)

	return []openforest.Action{
		openforest.NewSendFleet(source.ID, target.ID, math.Max(10, source.Energy*0.6)),
	}
}
