package service

import (
	"math/rand"
	"time"
)

// ShuffleOptions returns copies of the questions with their options permuted. The
// correct index follows the correct option. The input is not modified.
func ShuffleOptions(questions []QuizQuestion, r *rand.Rand) []QuizQuestion {
	if r == nil {
		r = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	shuffled := make([]QuizQuestion, len(questions))
	for qi, q := range questions {
		order := make([]int, len(q.Options))
		for i := range order {
			order[i] = i
		}

		// Fisher-Yates
		for i := len(order) - 1; i > 0; i-- {
			j := r.Intn(i + 1)
			order[i], order[j] = order[j], order[i]
		}

		options := make([]string, len(q.Options))
		correct := q.Correct
		for newIdx, oldIdx := range order {
			options[newIdx] = q.Options[oldIdx]
			if oldIdx == q.Correct {
				correct = newIdx
			}
		}

		q.Options = options
		q.Correct = correct
		shuffled[qi] = q
	}

	return shuffled
}
