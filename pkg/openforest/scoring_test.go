package openforest

import "testing"

// scoringState owns planets 0..2 by player 0 with energy caps 100/80/60,
// planet 2 carrying an artifact. Everything else is neutral.
func scoringState(t *testing.T) *State {
	t.Helper()
	s := NewState(testConfig(7), []string{"A", "B"})
	for i := range s.Planets {
		s.Planets[i].Owner = NoOwner
		s.Planets[i].IsArtifact = false
	}
	caps := []float64{100, 80, 60}
	for i, c := range caps {
		s.Planets[i].Owner = 0
		s.Planets[i].EnergyCap = c
		s.Planets[i].Energy = c / 2
	}
	s.Planets[2].IsArtifact = true
	return s
}

func TestScoreAccrual(t *testing.T) {
	s := scoringState(t)
	snap := s.AdvanceTick(nil)

	p0 := snap.Scores[0]
	if p0.TerritoryScore != (100+80+60)/1000.0 {
		t.Errorf("territory = %v, want %v", p0.TerritoryScore, (100+80+60)/1000.0)
	}
	if p0.ArtifactScore != 1.5 {
		t.Errorf("artifact = %v, want 1.5", p0.ArtifactScore)
	}
	if p0.Score != p0.TerritoryScore+p0.ArtifactScore {
		t.Errorf("score = %v, want territory+artifact = %v",
			p0.Score, p0.TerritoryScore+p0.ArtifactScore)
	}
	if p0.ArtifactsHeld != 1 {
		t.Errorf("artifacts held = %d, want 1", p0.ArtifactsHeld)
	}

	p1 := snap.Scores[1]
	if p1.Score != 0 || p1.ArtifactsHeld != 0 {
		t.Errorf("player 1 score = %v held = %d, want 0, 0", p1.Score, p1.ArtifactsHeld)
	}
}

func TestScoreAccumulatesAcrossTicks(t *testing.T) {
	s := scoringState(t)

	wantTerritory, wantArtifact := 0.0, 0.0
	for tick := 0; tick < 3; tick++ {
		snap := s.AdvanceTick(nil)
		wantTerritory += (100 + 80 + 60) / 1000.0
		wantArtifact += 1.5

		p0 := snap.Scores[0]
		if p0.TerritoryScore != wantTerritory {
			t.Errorf("tick %d: territory = %v, want %v", tick, p0.TerritoryScore, wantTerritory)
		}
		if p0.ArtifactScore != wantArtifact {
			t.Errorf("tick %d: artifact = %v, want %v", tick, p0.ArtifactScore, wantArtifact)
		}
	}
}

func TestScoreTopNCaps(t *testing.T) {
	s := scoringState(t)
	s.Config.ScoreTopN = 2

	snap := s.AdvanceTick(nil)
	// Only the two largest caps count: 100 and 80.
	if got := snap.Scores[0].TerritoryScore; got != (100+80)/1000.0 {
		t.Errorf("territory = %v, want %v", got, (100+80)/1000.0)
	}
}

func TestScoreCountsArtifactsNotLevels(t *testing.T) {
	s := scoringState(t)
	s.Planets[0].IsArtifact = true

	snap := s.AdvanceTick(nil)
	if got := snap.Scores[0].ArtifactsHeld; got != 2 {
		t.Errorf("artifacts held = %d, want 2", got)
	}
	if got := snap.Scores[0].ArtifactScore; got != 3.0 {
		t.Errorf("artifact score = %v, want 3.0", got)
	}
}

func TestScoreDropsWithLostArtifact(t *testing.T) {
	s := scoringState(t)

	first := s.AdvanceTick(nil)
	s.Planets[2].Owner = 1
	second := s.AdvanceTick(nil)

	if got := second.Scores[0].ArtifactsHeld; got != 0 {
		t.Errorf("artifacts held after loss = %d, want 0", got)
	}
	// Accrued points are never clawed back.
	if second.Scores[0].ArtifactScore != first.Scores[0].ArtifactScore {
		t.Errorf("artifact score changed after loss: %v -> %v",
			first.Scores[0].ArtifactScore, second.Scores[0].ArtifactScore)
	}
	if second.Scores[1].ArtifactScore != 1.5 {
		t.Errorf("new holder artifact score = %v, want 1.5", second.Scores[1].ArtifactScore)
	}
	if second.Scores[0].Score < first.Scores[0].Score {
		t.Errorf("score regressed: %v -> %v", first.Scores[0].Score, second.Scores[0].Score)
	}
}
