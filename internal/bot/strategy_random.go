package bot

import (
	"math"
	"math/rand"

	"github.com/freeeve/openforest/pkg/openforest"
)

var upgradeKinds = []openforest.UpgradeKind{
	openforest.UpgradeEnergy,
	openforest.UpgradeSilver,
	openforest.UpgradeDefense,
	openforest.UpgradeSpeed,
	openforest.UpgradeSensor,
}

// RandomStrategy mixes scans, one probing fleet, and upgrades, rolled
// from an RNG seeded by the observation tick so identical observations
// always produce identical orders.
type RandomStrategy struct{}

func (RandomStrategy) Name() string { return "random" }

func (RandomStrategy) Act(obs *openforest.Observation) []openforest.Action {
	owned := ownedPlanets(obs)
	if len(owned) == 0 {
		return nil
	}
	rng := rand.New(rand.NewSource(int64(obs.Tick)))

	var actions []openforest.Action

	if rng.Float64() < 0.4 {
		source := owned[rng.Intn(len(owned))]
		radius := 0.2 + rng.Float64()*0.2
		actions = append(actions, openforest.NewScan(source.X, source.Y, radius))
	}

	// Anything not ours, neutral or enemy, is a fleet target.
	var targets []openforest.ObservedPlanet
	for _, p := range obs.Planets {
		if p.Owner == nil || *p.Owner != obs.PlayerID {
			targets = append(targets, p)
		}
	}
	if len(targets) > 0 {
		source := owned[rng.Intn(len(owned))]
		target := targets[rng.Intn(len(targets))]
		actions = append(actions, openforest.NewSendFleet(source.ID, target.ID, math.Max(5, source.Energy*0.3)))
	}

	if rng.Float64() < 0.3 {
		source := owned[rng.Intn(len(owned))]
		kind := upgradeKinds[rng.Intn(len(upgradeKinds))]
		actions = append(actions, openforest.NewUpgrade(source.ID, kind))
	}

	return truncate(actions, obs)
}
