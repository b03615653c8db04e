package openforest

import (
	"encoding/json"
	"fmt"
)

// ActionType discriminates the action variants an agent may submit.
type ActionType string

const (
	ActionScan      ActionType = "scan"
	ActionSendFleet ActionType = "send_fleet"
	ActionUpgrade   ActionType = "upgrade"
)

// UpgradeKind selects which planet attribute an upgrade improves.
type UpgradeKind string

const (
	UpgradeEnergy  UpgradeKind = "energy"
	UpgradeSilver  UpgradeKind = "silver"
	UpgradeDefense UpgradeKind = "defense"
	UpgradeSpeed   UpgradeKind = "speed"
	UpgradeSensor  UpgradeKind = "sensor"
)

// Action is one agent order: a scan, a fleet launch, or an upgrade.
// Only the fields of the active variant are meaningful. The zero
// Action (empty Type) is a no-op the tick pipeline ignores.
type Action struct {
	Type ActionType

	// Scan center and radius (ActionScan).
	X      float64
	Y      float64
	Radius float64

	// Fleet launch endpoints and payload (ActionSendFleet).
	FromID int
	ToID   int
	Energy float64

	// Upgrade target (ActionUpgrade).
	PlanetID int
	Upgrade  UpgradeKind
}

// NewScan builds a scan action centered at (x, y).
func NewScan(x, y, radius float64) Action {
	return Action{Type: ActionScan, X: x, Y: y, Radius: radius}
}

// NewSendFleet builds a fleet launch carrying the given energy.
func NewSendFleet(fromID, toID int, energy float64) Action {
	return Action{Type: ActionSendFleet, FromID: fromID, ToID: toID, Energy: energy}
}

// NewUpgrade builds an upgrade order for a planet.
func NewUpgrade(planetID int, kind UpgradeKind) Action {
	return Action{Type: ActionUpgrade, PlanetID: planetID, Upgrade: kind}
}

// MarshalJSON emits exactly the wire shape of the active variant.
func (a Action) MarshalJSON() ([]byte, error) {
	switch a.Type {
	case ActionScan:
		return json.Marshal(struct {
			Type   ActionType `json:"type"`
			X      float64    `json:"x"`
			Y      float64    `json:"y"`
			Radius float64    `json:"radius"`
		}{a.Type, a.X, a.Y, a.Radius})
	case ActionSendFleet:
		return json.Marshal(struct {
			Type   ActionType `json:"type"`
			FromID int        `json:"from_id"`
			ToID   int        `json:"to_id"`
			Energy float64    `json:"energy"`
		}{a.Type, a.FromID, a.ToID, a.Energy})
	case ActionUpgrade:
		return json.Marshal(struct {
			Type     ActionType  `json:"type"`
			PlanetID int         `json:"planet_id"`
			Upgrade  UpgradeKind `json:"upgrade"`
		}{a.Type, a.PlanetID, a.Upgrade})
	default:
		return nil, fmt.Errorf("openforest: marshaling unknown action type %q", a.Type)
	}
}

// UnmarshalJSON accepts any of the three wire variants. Ids arriving
// as JSON floats are truncated to integers.
func (a *Action) UnmarshalJSON(data []byte) error {
	var raw struct {
		Type     ActionType  `json:"type"`
		X        float64     `json:"x"`
		Y        float64     `json:"y"`
		Radius   float64     `json:"radius"`
		FromID   float64     `json:"from_id"`
		ToID     float64     `json:"to_id"`
		Energy   float64     `json:"energy"`
		PlanetID float64     `json:"planet_id"`
		Upgrade  UpgradeKind `json:"upgrade"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch raw.Type {
	case ActionScan, ActionSendFleet, ActionUpgrade:
	default:
		return fmt.Errorf("openforest: unknown action type %q", raw.Type)
	}
	*a = Action{
		Type:     raw.Type,
		X:        raw.X,
		Y:        raw.Y,
		Radius:   raw.Radius,
		FromID:   int(raw.FromID),
		ToID:     int(raw.ToID),
		Energy:   raw.Energy,
		PlanetID: int(raw.PlanetID),
		Upgrade:  raw.Upgrade,
	}
	return nil
}

// DecodeActions parses a raw JSON action list leniently. Elements that
// fail to parse or carry an unknown type decode as typeless no-ops so
// they still occupy a slot under the per-tick action cap; a reveal that
// verified against its commit may still contain garbage, and garbage
// never aborts the tick. A non-list payload yields no actions.
func DecodeActions(raw json.RawMessage) []Action {
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return nil
	}
	actions := make([]Action, len(elems))
	for i, e := range elems {
		var a Action
		if err := json.Unmarshal(e, &a); err != nil {
			continue
		}
		actions[i] = a
	}
	return actions
}
