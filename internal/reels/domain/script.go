package domain

// WordBudget converts a spoken-duration hint into an approximate word
// count for the rewrite prompt, at 2.5 words per second.
func WordBudget(seconds int) int {
	return int(float64(seconds) * 2.5)
}
