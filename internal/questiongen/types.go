package questiongen

import (
	"math/rand/v2"

	"github.com/abhisek/calcbot/internal/curriculum"
	"github.com/abhisek/calcbot/internal/store"
)

// Input holds everything needed to generate one question.
type Input struct {
	// Skill is the target skill. Skill.Unit names the unit.
	Skill curriculum.Skill

	// Kind selects multiple choice or free response.
	Kind store.Kind

	Difficulty store.Difficulty

	// Calculator marks the question as calculator-active.
	Calculator bool
}

// RandomInput picks a random skill of the unit together with a random
// kind, difficulty and calculator flag.
func RandomInput(unit int, rng *rand.Rand) (Input, error) {
	skill, err := curriculum.RandomSkill(unit, rng)
	if err != nil {
		return Input{}, err
	}

	kind := store.KindMCQ
	if rng.IntN(2) == 1 {
		kind = store.KindFRQ
	}
	diffs := store.Difficulties()

	return Input{
		Skill:      skill,
		Kind:       kind,
		Difficulty: diffs[rng.IntN(len(diffs))],
		Calculator: rng.IntN(2) == 1,
	}, nil
}
