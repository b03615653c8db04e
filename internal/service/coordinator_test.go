package service

import (
	"context"
	"testing"
	"time"

	"github.com/freeeve/openforest/pkg/openforest"
)

func TestRunRoundVerifiesHonestAgents(t *testing.T) {
	coord := NewCoordinator(500, 500)
	a0 := newFakeAgent(0, []openforest.Action{openforest.NewScan(0.1, 0.2, 0.3)})
	a1 := newFakeAgent(1, []openforest.Action{openforest.NewSendFleet(2, 5, 12.5)})

	verified := coord.RunRound(context.Background(), 0, []AgentConn{a0, a1}, nil)
	if len(verified) != 2 {
		t.Fatalf("expected 2 verified submissions, got %d", len(verified))
	}

	actions := openforest.DecodeActions(verified[0])
	if len(actions) != 1 || actions[0].Type != openforest.ActionScan {
		t.Fatalf("unexpected actions for player 0: %+v", actions)
	}
	actions = openforest.DecodeActions(verified[1])
	if len(actions) != 1 || actions[0].Type != openforest.ActionSendFleet {
		t.Fatalf("unexpected actions for player 1: %+v", actions)
	}
	if actions[0].Energy != 12.5 {
		t.Fatalf("expected fleet energy 12.5, got %f", actions[0].Energy)
	}
}

func TestRunRoundDropsTamperedReveal(t *testing.T) {
	coord := NewCoordinator(500, 500)
	honest := newFakeAgent(0, []openforest.Action{openforest.NewScan(0.1, 0.2, 0.3)})
	cheat := newFakeAgent(1, []openforest.Action{openforest.NewScan(0.5, 0.5, 0.2)})
	cheat.tamper = true

	verified := coord.RunRound(context.Background(), 3, []AgentConn{honest, cheat}, nil)
	if len(verified) != 1 {
		t.Fatalf("expected 1 verified submission, got %d", len(verified))
	}
	if _, ok := verified[0]; !ok {
		t.Fatal("expected honest agent to survive")
	}
	if _, ok := verified[1]; ok {
		t.Fatal("expected tampered reveal to be dropped")
	}
}

func TestRunRoundDropsWrongNonce(t *testing.T) {
	coord := NewCoordinator(500, 500)
	agent := newFakeAgent(0, []openforest.Action{openforest.NewScan(0.1, 0.2, 0.3)})
	agent.wrongNonce = true

	verified := coord.RunRound(context.Background(), 0, []AgentConn{agent}, nil)
	if len(verified) != 0 {
		t.Fatalf("expected wrong nonce to be dropped, got %d submissions", len(verified))
	}
}

func TestRunRoundDropsCommitTimeout(t *testing.T) {
	coord := NewCoordinator(50, 500)
	fast := newFakeAgent(0, []openforest.Action{openforest.NewScan(0.1, 0.2, 0.3)})
	slow := newFakeAgent(1, []openforest.Action{openforest.NewScan(0.5, 0.5, 0.2)})
	slow.commitDelay = 300 * time.Millisecond

	verified := coord.RunRound(context.Background(), 0, []AgentConn{fast, slow}, nil)
	if len(verified) != 1 {
		t.Fatalf("expected 1 verified submission, got %d", len(verified))
	}
	if _, ok := verified[0]; !ok {
		t.Fatal("expected fast agent to survive")
	}
	// The reveal phase never reaches an agent without a commit.
	if slow.revealCount() != 0 {
		t.Fatalf("expected no reveal request for timed-out agent, got %d", slow.revealCount())
	}
}

func TestRunRoundDropsRevealFailure(t *testing.T) {
	coord := NewCoordinator(500, 500)
	agent := newFakeAgent(0, []openforest.Action{openforest.NewScan(0.1, 0.2, 0.3)})
	agent.failReveal = true

	verified := coord.RunRound(context.Background(), 0, []AgentConn{agent}, nil)
	if len(verified) != 0 {
		t.Fatalf("expected reveal failure to be dropped, got %d submissions", len(verified))
	}
}

func TestRunRoundNoAgents(t *testing.T) {
	coord := NewCoordinator(500, 500)
	verified := coord.RunRound(context.Background(), 0, nil, nil)
	if len(verified) != 0 {
		t.Fatalf("expected empty result, got %d", len(verified))
	}
}

func TestRunRoundCommitsDoNotCarryOver(t *testing.T) {
	coord := NewCoordinator(500, 500)
	agent := newFakeAgent(0, []openforest.Action{openforest.NewScan(0.1, 0.2, 0.3)})

	first := coord.RunRound(context.Background(), 0, []AgentConn{agent}, nil)
	if len(first) != 1 {
		t.Fatalf("expected round 0 submission, got %d", len(first))
	}

	// The agent fails its commit on the next round; the verified commit
	// from round 0 must not resurrect it.
	agent.failCommit = true
	second := coord.RunRound(context.Background(), 1, []AgentConn{agent}, nil)
	if len(second) != 0 {
		t.Fatalf("expected no submissions on round 1, got %d", len(second))
	}
}
