package prompt

import (
	"context"
	"math/rand"
	"strings"
	"time"

	"github.com/dmorgan81/sdxlgen/internal/errs"
	"github.com/dmorgan81/sdxlgen/internal/log"
	"github.com/samber/do"
	"github.com/samber/lo"
)

const Default = "underwater world, plants, shells, creatures, high detail, sharp focus, 4k"

type Randomizer struct {
	prompts []string
	rnd     *rand.Rand
}

func NewRandomizer(i *do.Injector) (*Randomizer, error) {
	prompts, err := do.InvokeNamed[[]string](i, "prompts")
	if err != nil {
		return nil, err
	}
	return New(prompts, rand.NewSource(time.Now().UTC().UnixNano())), nil
}

func New(prompts []string, src rand.Source) *Randomizer {
	prompts = lo.Filter(prompts, func(p string, _ int) bool {
		return strings.TrimSpace(p) != ""
	})
	return &Randomizer{prompts, rand.New(src)}
}

// Randomize picks an entry of the form "prompt|negative" and returns both
// halves. The negative half is optional.
func (r *Randomizer) Randomize(ctx context.Context) (string, string, error) {
	if len(r.prompts) == 0 {
		return "", "", errs.Configuration("no prompts to choose from")
	}
	log := log.FromContextOrDiscard(ctx).WithGroup("randomizer")
	log.Info("getting random prompt", "choices", len(r.prompts))

	positive, negative, _ := strings.Cut(r.prompts[r.rnd.Intn(len(r.prompts))], "|")
	return strings.TrimSpace(positive), strings.TrimSpace(negative), nil
}
