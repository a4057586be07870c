package quiz

import (
	"math/rand"
	"time"

	"quizmaster/internal/domain"
)

// NewRand returns a generator for the given seed; zero seeds from the clock.
func NewRand(seed int64) *rand.Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}

// Shuffle returns a uniformly random permutation of in. The input is not modified.
func Shuffle[T any](rnd *rand.Rand, in []T) []T {
	out := make([]T, len(in))
	copy(out, in)
	for i := len(out) - 1; i > 0; i-- {
		j := rnd.Intn(i + 1)
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// ShuffleQuestionOptions permutes the options of a copy of q. CorrectAnswers is left
// untouched so membership checks keep holding after the reorder.
func ShuffleQuestionOptions(rnd *rand.Rand, q domain.Question) domain.Question {
	out := q.Clone()
	out.Options = Shuffle(rnd, q.Options)
	return out
}

// shuffleQuestions applies both permutations used at quiz start: question order first,
// then each question's options independently.
func shuffleQuestions(rnd *rand.Rand, questions []domain.Question) []domain.Question {
	ordered := Shuffle(rnd, questions)
	for i := range ordered {
		ordered[i] = ShuffleQuestionOptions(rnd, ordered[i])
	}
	return ordered
}
