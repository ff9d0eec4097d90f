package assessment

import "math/rand"

// ShuffleChoices applies a uniform random permutation to the choices and
// returns the remapped correct index. The stored correct index is always the
// post-shuffle one; grading must never use the generator's original index.
func ShuffleChoices(rnd *rand.Rand, choices []string, correctIndex int) ([]string, int) {
	type tagged struct {
		text string
		orig int
	}
	arr := make([]tagged, len(choices))
	for i, c := range choices {
		arr[i] = tagged{text: c, orig: i}
	}
	rnd.Shuffle(len(arr), func(i, j int) {
		arr[i], arr[j] = arr[j], arr[i]
	})
	out := make([]string, len(arr))
	newCorrect := 0
	for i, t := range arr {
		out[i] = t.text
		if t.orig == correctIndex {
			newCorrect = i
		}
	}
	return out, newCorrect
}
