package bot

import (
	"math"
	"sort"

	"github.com/freeeve/openforest/pkg/openforest"
)

// ExpansionStrategy claims the nearest neutral planets from every
// source that has banked at least half its cap, richest sources first,
// and spends any leftover action slot leveling up its biggest planet.
type ExpansionStrategy struct{}

func (ExpansionStrategy) Name() string { return "expansion" }

func (ExpansionStrategy) Act(obs *openforest.Observation) []openforest.Action {
	owned := ownedPlanets(obs)
	if len(owned) == 0 {
		return nil
	}
	neutrals := neutralPlanets(obs)
	limit := actionLimit(obs)

	sources := make([]openforest.ObservedPlanet, len(owned))
	copy(sources, owned)
	sort.SliceStable(sources, func(i, j int) bool {
		return sources[i].Energy > sources[j].Energy
	})

	var actions []openforest.Action
	for _, source := range sources {
		if len(actions) >= limit {
			break
		}
		if source.Energy < source.EnergyCap*0.5 {
			continue
		}
		if len(neutrals) == 0 {
			break
		}
		target := nearestPlanet(neutrals, source.X, source.Y)
		actions = append(actions, openforest.NewSendFleet(source.ID, target.ID, math.Max(8, source.Energy*0.35)))
	}

	if len(actions) < limit {
		home := biggestCapPlanet(owned)
		actions = append(actions, openforest.NewUpgrade(home.ID, openforest.UpgradeEnergy))
	}
	return actions
}
