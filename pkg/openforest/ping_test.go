package openforest

import (
	"math"
	"testing"
)

func TestFleetPingDeterministic(t *testing.T) {
	cfg := testConfig(7)
	s := NewState(cfg, []string{"A", "B"})
	source := s.Planets[0]

	fleet := Fleet{ID: 5, Owner: 0, SourceID: source.ID, DestID: 1, Energy: 40,
		TotalTicks: 1, TicksRemaining: 1}
	s.emitFleetPing(fleet)

	if len(s.Pings) != 1 {
		t.Fatalf("ping count = %d, want 1", len(s.Pings))
	}
	ping := s.Pings[0]

	rng := DeterministicRNG(cfg.Seed, "ping", s.Tick, fleet.ID)
	jitterX := uniform(rng, -cfg.PingJitter, cfg.PingJitter)
	jitterY := uniform(rng, -cfg.PingJitter, cfg.PingJitter)

	if math.Abs(ping.X-(source.X+jitterX)) > 1e-9 {
		t.Errorf("ping x = %v, want %v", ping.X, source.X+jitterX)
	}
	if math.Abs(ping.Y-(source.Y+jitterY)) > 1e-9 {
		t.Errorf("ping y = %v, want %v", ping.Y, source.Y+jitterY)
	}
	if math.Abs(ping.X-source.X) > cfg.PingJitter || math.Abs(ping.Y-source.Y) > cfg.PingJitter {
		t.Errorf("jitter exceeded +/-%v: ping (%v,%v) source (%v,%v)",
			cfg.PingJitter, ping.X, ping.Y, source.X, source.Y)
	}
}

func TestFleetPingScalesWithEnergy(t *testing.T) {
	cfg := testConfig(7)
	s := NewState(cfg, []string{"A", "B"})

	s.emitFleetPing(Fleet{ID: 1, Owner: 0, SourceID: 0, DestID: 1, Energy: 40, TotalTicks: 1})
	ping := s.Pings[0]

	wantRadius := cfg.PingBaseRadius + math.Sqrt(40)*0.01
	wantStrength := cfg.PingBaseStrength + math.Sqrt(40)*0.02
	if math.Abs(ping.Radius-wantRadius) > 1e-12 {
		t.Errorf("radius = %v, want %v", ping.Radius, wantRadius)
	}
	if math.Abs(ping.Strength-wantStrength) > 1e-12 {
		t.Errorf("strength = %v, want %v", ping.Strength, wantStrength)
	}
	if ping.TTL != cfg.PingTTLTicks {
		t.Errorf("ttl = %d, want %d", ping.TTL, cfg.PingTTLTicks)
	}
	if ping.SourcePlayer != 0 {
		t.Errorf("source player = %d, want 0", ping.SourcePlayer)
	}
}

func TestFleetPingArtifactBonus(t *testing.T) {
	cfg := testConfig(7)
	s := NewState(cfg, []string{"A", "B"})
	s.Planets[0].IsArtifact = true

	s.emitFleetPing(Fleet{ID: 1, Owner: 0, SourceID: 0, DestID: 1, Energy: 40, TotalTicks: 1})
	ping := s.Pings[0]

	wantRadius := cfg.PingBaseRadius + math.Sqrt(40)*0.01 + cfg.ArtifactPingRadius*0.5
	wantStrength := cfg.PingBaseStrength + math.Sqrt(40)*0.02 + cfg.ArtifactPingStrength*0.8
	if math.Abs(ping.Radius-wantRadius) > 1e-12 {
		t.Errorf("radius = %v, want %v (artifact bonus)", ping.Radius, wantRadius)
	}
	if math.Abs(ping.Strength-wantStrength) > 1e-12 {
		t.Errorf("strength = %v, want %v (artifact bonus)", ping.Strength, wantStrength)
	}
}

// A launch ping decays in the same tick it is emitted, so with ttl 3 it
// appears in exactly the launch snapshot and the one after.
func TestFleetPingLifecycle(t *testing.T) {
	s := twoPlanetState(testConfig(7))

	snap0 := s.AdvanceTick(map[int][]Action{0: {NewSendFleet(0, 1, 20)}})
	if len(snap0.Pings) != 1 {
		t.Fatalf("launch snapshot pings = %d, want 1", len(snap0.Pings))
	}
	if snap0.Pings[0].Tick != 0 {
		t.Errorf("ping tick = %d, want 0", snap0.Pings[0].Tick)
	}

	snap1 := s.AdvanceTick(nil)
	if len(snap1.Pings) != 1 {
		t.Errorf("tick 1 pings = %d, want 1 (still alive)", len(snap1.Pings))
	}

	snap2 := s.AdvanceTick(nil)
	if len(snap2.Pings) != 0 {
		t.Errorf("tick 2 pings = %d, want 0 (expired)", len(snap2.Pings))
	}
}

// Every owned artifact planet beacons once per tick at its exact
// position, with a fresh ping id each time.
func TestArtifactBeacon(t *testing.T) {
	cfg := testConfig(7)
	s := twoPlanetState(cfg)
	s.Planets[1].Owner = 1
	s.Planets[1].IsArtifact = true

	snap0 := s.AdvanceTick(nil)
	snap1 := s.AdvanceTick(nil)

	if len(snap0.Pings) != 1 || len(snap1.Pings) != 1 {
		t.Fatalf("beacon pings per snapshot = %d,%d, want 1,1",
			len(snap0.Pings), len(snap1.Pings))
	}
	b0, b1 := snap0.Pings[0], snap1.Pings[0]
	if b0.X != s.Planets[1].X || b0.Y != s.Planets[1].Y {
		t.Errorf("beacon at (%v,%v), want exact planet position (%v,%v)",
			b0.X, b0.Y, s.Planets[1].X, s.Planets[1].Y)
	}
	if b0.Radius != cfg.ArtifactPingRadius || b0.Strength != cfg.ArtifactPingStrength {
		t.Errorf("beacon radius/strength = %v/%v, want %v/%v",
			b0.Radius, b0.Strength, cfg.ArtifactPingRadius, cfg.ArtifactPingStrength)
	}
	if b0.SourcePlayer != 1 {
		t.Errorf("beacon source = %d, want owner 1", b0.SourcePlayer)
	}
	if b1.ID == b0.ID {
		t.Errorf("beacon reused ping id %d across ticks", b0.ID)
	}
}

// Unowned artifacts stay silent.
func TestArtifactBeaconRequiresOwner(t *testing.T) {
	s := twoPlanetState(testConfig(7))
	s.Planets[1].IsArtifact = true

	snap := s.AdvanceTick(nil)
	if len(snap.Pings) != 0 {
		t.Errorf("unowned artifact emitted %d pings", len(snap.Pings))
	}
}

func TestDeterministicRNGIndependence(t *testing.T) {
	// The keyed stream must not depend on draw history elsewhere.
	a := DeterministicRNG(7, "ping", 0, 5)
	_ = DeterministicRNG(7, "other", 99)
	b := DeterministicRNG(7, "ping", 0, 5)

	for i := 0; i < 8; i++ {
		x, y := a.Float64(), b.Float64()
		if x != y {
			t.Fatalf("draw %d differs: %v vs %v", i, x, y)
		}
	}

	c := DeterministicRNG(7, "ping", 0, 6)
	if a.Float64() == c.Float64() {
		t.Error("different key parts produced the same first draw")
	}
}
