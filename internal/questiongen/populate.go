package questiongen

import (
	"context"
	"math/rand/v2"

	"github.com/abhisek/calcbot/internal/store"
)

// PopulateResult counts the outcome of a Populate run.
type PopulateResult struct {
	Created    int
	Duplicates int
	Failed     int
}

// Total returns the number of questions attempted.
func (r PopulateResult) Total() int {
	return r.Created + r.Duplicates + r.Failed
}

// Progress is called after each attempted question with the running
// result and the error for that attempt, if any.
type Progress func(done, total int, res PopulateResult, err error)

// Populate generates n questions for random skills of the unit and adds
// them to repo. Individual failures are counted, not returned. Only a
// canceled context stops the run early.
func Populate(ctx context.Context, gen Generator, repo store.QuestionRepo, unit, n int, rng *rand.Rand, progress Progress) (PopulateResult, error) {
	var res PopulateResult
	for i := range n {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		err := populateOne(ctx, gen, repo, unit, rng, &res)
		if progress != nil {
			progress(i+1, n, res, err)
		}
	}
	return res, nil
}

func populateOne(ctx context.Context, gen Generator, repo store.QuestionRepo, unit int, rng *rand.Rand, res *PopulateResult) error {
	input, err := RandomInput(unit, rng)
	if err != nil {
		res.Failed++
		return err
	}

	q, err := gen.Generate(ctx, input)
	if err != nil {
		res.Failed++
		return err
	}

	added, err := repo.AddQuestion(ctx, q)
	switch {
	case err != nil:
		res.Failed++
		return err
	case !added:
		res.Duplicates++
	default:
		res.Created++
	}
	return nil
}
