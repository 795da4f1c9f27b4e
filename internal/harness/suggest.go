package harness

import (
	"fmt"

	"github.com/agnivade/levenshtein"
)

var (
	stepOps        = []string{"push", "replace", "dispatch", "go", "back", "forward", "travel", "call"}
	callMethods    = []string{"push", "replace", "go", "goBack", "goForward"}
	assertionTypes = []string{AssertTransitions, AssertDispatches, AssertListenerCalls, AssertLocation, AssertTraceOrder}
)

// suggest returns the candidate closest to word when it is within two
// edits, or "" when nothing is close.
func suggest(word string, candidates []string) string {
	best, bestDist := "", 3
	for _, c := range candidates {
		if d := levenshtein.ComputeDistance(word, c); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}

// didYouMean formats a hint for unknown, or "" when nothing is close.
func didYouMean(unknown string, candidates []string) string {
	if s := suggest(unknown, candidates); s != "" {
		return fmt.Sprintf(" (did you mean %q?)", s)
	}
	return ""
}
