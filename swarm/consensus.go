package swarm

// Strategy selects the rule used to decide whether a round of votes counts
// as agreement.
type Strategy string

const (
	// MajorityVote succeeds on a strict majority (a 50/50 split fails).
	MajorityVote Strategy = "majority"
	// Unanimity succeeds only when every vote is positive.
	Unanimity Strategy = "unanimity"
	// ManagerDecides defers to a single designated arbiter's vote. Without a
	// configured arbiter it degenerates to majority.
	ManagerDecides Strategy = "manager"
)

// acceptance is the fixed vocabulary of positive vote tokens.
var acceptance = map[string]bool{
	"approve": true,
	"pass":    true,
	"success": true,
}

// NoArbiter marks a ManagerDecides evaluation with no designated voter.
const NoArbiter = -1

// Evaluate reports whether votes satisfy the strategy. Votes are free-text
// tokens; anything outside the acceptance vocabulary counts negative. Empty
// vote lists always fail.
func Evaluate(strategy Strategy, votes []string) bool {
	return EvaluateWithArbiter(strategy, votes, NoArbiter)
}

// EvaluateWithArbiter is Evaluate with an explicit arbiter index for the
// ManagerDecides strategy. When arbiter is out of range (including NoArbiter)
// ManagerDecides falls back to majority.
func EvaluateWithArbiter(strategy Strategy, votes []string, arbiter int) bool {
	if len(votes) == 0 {
		return false
	}

	positive := 0
	for _, v := range votes {
		if acceptance[v] {
			positive++
		}
	}

	switch strategy {
	case Unanimity:
		return positive == len(votes)
	case ManagerDecides:
		if arbiter >= 0 && arbiter < len(votes) {
			return acceptance[votes[arbiter]]
		}
		return positive*2 > len(votes)
	default: // MajorityVote
		return positive*2 > len(votes)
	}
}
