package swarm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestEvaluate_Majority(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		votes []string
		want  bool
	}{
		{"two thirds", []string{"approve", "approve", "reject"}, true},
		{"mixed positive tokens", []string{"approve", "approve", "pass"}, true},
		{"fifty fifty fails", []string{"approve", "reject"}, false},
		{"single positive", []string{"success"}, true},
		{"single negative", []string{"nope"}, false},
		{"empty fails", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Evaluate(MajorityVote, tt.votes))
		})
	}
}

func TestEvaluate_Unanimity(t *testing.T) {
	t.Parallel()
	assert.True(t, Evaluate(Unanimity, []string{"approve", "approve"}))
	assert.True(t, Evaluate(Unanimity, []string{"approve", "pass", "success"}))
	assert.False(t, Evaluate(Unanimity, []string{"approve", "reject"}))
	assert.False(t, Evaluate(Unanimity, nil))
}

func TestEvaluate_ManagerDecides(t *testing.T) {
	t.Parallel()
	votes := []string{"reject", "approve", "reject"}

	// Arbiter's vote overrides the rest.
	assert.True(t, EvaluateWithArbiter(ManagerDecides, votes, 1))
	assert.False(t, EvaluateWithArbiter(ManagerDecides, votes, 0))

	// No arbiter (or out of range): degenerates to majority.
	assert.False(t, EvaluateWithArbiter(ManagerDecides, votes, NoArbiter))
	assert.False(t, EvaluateWithArbiter(ManagerDecides, votes, 99))
	assert.True(t, EvaluateWithArbiter(ManagerDecides, []string{"approve", "approve", "reject"}, NoArbiter))
}

func TestEvaluate_EmptyAlwaysFails(t *testing.T) {
	t.Parallel()
	for _, s := range []Strategy{MajorityVote, Unanimity, ManagerDecides} {
		assert.False(t, Evaluate(s, []string{}), "strategy %s", s)
	}
}

func TestEvaluate_Properties(t *testing.T) {
	t.Parallel()
	rapid.Check(t, func(t *rapid.T) {
		votes := rapid.SliceOfN(
			rapid.SampledFrom([]string{"approve", "pass", "success", "reject", "fail", ""}),
			1, 20,
		).Draw(t, "votes")

		positive := 0
		for _, v := range votes {
			if acceptance[v] {
				positive++
			}
		}

		majority := Evaluate(MajorityVote, votes)
		unanimity := Evaluate(Unanimity, votes)

		// Unanimity implies majority for non-empty vote lists.
		if unanimity {
			assert.True(t, majority)
		}
		// Majority is exactly the strict-majority predicate.
		assert.Equal(t, positive*2 > len(votes), majority)
		// Unanimity is exactly the all-positive predicate.
		assert.Equal(t, positive == len(votes), unanimity)
	})
}
