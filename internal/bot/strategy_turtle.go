package bot

import (
	"github.com/freeeve/openforest/pkg/openforest"
)

// TurtleStrategy fortifies its biggest planet with defense and sensor
// upgrades, keeps a scan running, and only reaches for the nearest
// neutral once the home bank is above 70% of cap.
type TurtleStrategy struct{}

func (TurtleStrategy) Name() string { return "turtle" }

func (TurtleStrategy) Act(obs *openforest.Observation) []openforest.Action {
	owned := ownedPlanets(obs)
	if len(owned) == 0 {
		return nil
	}
	home := biggestCapPlanet(owned)

	actions := []openforest.Action{
		openforest.NewUpgrade(home.ID, openforest.UpgradeDefense),
		openforest.NewUpgrade(home.ID, openforest.UpgradeSensor),
	}

	if len(actions) < actionLimit(obs) {
		actions = append(actions, openforest.NewScan(home.X, home.Y, 0.35))
	}

	if home.Energy > home.EnergyCap*0.7 {
		if target := nearestPlanet(neutralPlanets(obs), home.X, home.Y); target != nil {
			actions = append(actions, openforest.NewSendFleet(home.ID, target.ID, home.Energy*0.25))
		}
	}

	return truncate(actions, obs)
}
