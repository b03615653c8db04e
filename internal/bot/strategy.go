// Package bot provides the builtin strategies and the agent transports
// (in-process, subprocess, HTTP) that put them behind seats of a match.
package bot

import (
	"github.com/freeeve/openforest/pkg/openforest"
)

// Strategy generates one tick's actions for a bot seat from its fogged
// observation. Implementations must be deterministic in the observation
// so replays of the same match reproduce the same orders.
type Strategy interface {
	Name() string
	Act(obs *openforest.Observation) []openforest.Action
}

// StrategyNames lists the builtin strategies in factory order.
var StrategyNames = []string{"random", "rush", "expansion", "turtle"}

// StrategyForName returns the builtin strategy registered under name.
// Unknown names fall back to the random policy.
func StrategyForName(name string) Strategy {
	switch name {
	case "rush":
		return &RushStrategy{}
	case "expansion":
		return &ExpansionStrategy{}
	case "turtle":
		return &TurtleStrategy{}
	default:
		return &RandomStrategy{}
	}
}

// ownedPlanets filters the observation to planets the player controls.
func ownedPlanets(obs *openforest.Observation) []openforest.ObservedPlanet {
	var owned []openforest.ObservedPlanet
	for _, p := range obs.Planets {
		if p.Owner != nil && *p.Owner == obs.PlayerID {
			owned = append(owned, p)
		}
	}
	return owned
}

// neutralPlanets filters the observation to unowned planets.
func neutralPlanets(obs *openforest.Observation) []openforest.ObservedPlanet {
	var neutrals []openforest.ObservedPlanet
	for _, p := range obs.Planets {
		if p.Owner == nil {
			neutrals = append(neutrals, p)
		}
	}
	return neutrals
}

// enemyPlanets filters the observation to planets owned by someone else.
func enemyPlanets(obs *openforest.Observation) []openforest.ObservedPlanet {
	var enemies []openforest.ObservedPlanet
	for _, p := range obs.Planets {
		if p.Owner != nil && *p.Owner != obs.PlayerID {
			enemies = append(enemies, p)
		}
	}
	return enemies
}

// nearestPlanet returns the planet closest to (x, y) by squared
// distance; ties keep the earliest candidate. Empty input returns nil.
func nearestPlanet(planets []openforest.ObservedPlanet, x, y float64) *openforest.ObservedPlanet {
	var best *openforest.ObservedPlanet
	bestDist := 0.0
	for i := range planets {
		p := &planets[i]
		dx, dy := p.X-x, p.Y-y
		d := dx*dx + dy*dy
		if best == nil || d < bestDist {
			best = p
			bestDist = d
		}
	}
	return best
}

// richestPlanet returns the planet with the highest energy; ties keep
// the earliest candidate.
func richestPlanet(planets []openforest.ObservedPlanet) *openforest.ObservedPlanet {
	var best *openforest.ObservedPlanet
	for i := range planets {
		if best == nil || planets[i].Energy > best.Energy {
			best = &planets[i]
		}
	}
	return best
}

// biggestCapPlanet returns the planet with the highest energy cap;
// ties keep the earliest candidate.
func biggestCapPlanet(planets []openforest.ObservedPlanet) *openforest.ObservedPlanet {
	var best *openforest.ObservedPlanet
	for i := range planets {
		if best == nil || planets[i].EnergyCap > best.EnergyCap {
			best = &planets[i]
		}
	}
	return best
}

// actionLimit returns the per-tick action cap the server enforces.
func actionLimit(obs *openforest.Observation) int {
	if obs.MaxActions > 0 {
		return obs.MaxActions
	}
	return openforest.DefaultConfig().MaxActionsPerTick
}

// truncate caps an action list at the observation's per-tick limit.
func truncate(actions []openforest.Action, obs *openforest.Observation) []openforest.Action {
	if limit := actionLimit(obs); len(actions) > limit {
		return actions[:limit]
	}
	return actions
}
