package grade

// MaxScore is the final score of a user without any error.
const MaxScore = 90

// predicate bands, highest threshold first
var predicateBands = []struct {
	min       int
	predicate string
}{
	{86, "A"},
	{76, "AB"},
	{66, "B"},
	{61, "BC"},
	{56, "C"},
	{41, "D"},
}

const lowestPredicate = "E"

// FinalScore returns max(MaxScore - totalErrors, 0).
func FinalScore(totalErrors int) int {
	if score := MaxScore - totalErrors; score > 0 {
		return score
	}
	return 0
}

// PredicateFor maps a final score to its letter predicate.
func PredicateFor(score int) string {
	for _, band := range predicateBands {
		if score >= band.min {
			return band.predicate
		}
	}
	return lowestPredicate
}

// Calculate derives the final score and predicate from a total number of errors.
func Calculate(totalErrors int) (int, string) {
	score := FinalScore(totalErrors)
	return score, PredicateFor(score)
}
