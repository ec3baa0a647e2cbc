package reconcile

// Ratio computes a similarity in [0,1] as 2*LCS/(len(a)+len(b)), the
// insert/delete-only Levenshtein ratio. The match thresholds used by the
// reconciler were tuned against this definition; distance-over-max-length
// ratios score the same pairs noticeably lower.
func Ratio(a, b string) float64 {
	ra := []rune(a)
	rb := []rune(b)
	total := len(ra) + len(rb)
	if total == 0 {
		return 1
	}

	// Longest common subsequence, two-row DP.
	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for i := 1; i <= len(ra); i++ {
		for j := 1; j <= len(rb); j++ {
			if ra[i-1] == rb[j-1] {
				curr[j] = prev[j-1] + 1
			} else if prev[j] >= curr[j-1] {
				curr[j] = prev[j]
			} else {
				curr[j] = curr[j-1]
			}
		}
		prev, curr = curr, prev
	}

	return float64(2*prev[len(rb)]) / float64(total)
}
