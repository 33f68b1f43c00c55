package handler

import (
	"context"
	"strconv"
	"strings"

	"github.com/dmorgan81/sdxlgen/internal/config"
	"github.com/dmorgan81/sdxlgen/internal/image"
	"github.com/dmorgan81/sdxlgen/internal/log"
	"github.com/dmorgan81/sdxlgen/internal/prompt"
	"github.com/dmorgan81/sdxlgen/internal/store"
	"github.com/samber/do"
	"github.com/samber/lo"
)

type Input struct {
	Prompt         string  `json:"prompt,omitempty"`
	NegativePrompt string  `json:"negative_prompt,omitempty"`
	CfgScale       float64 `json:"cfg_scale,omitempty"`
	Sampler        string  `json:"sampler,omitempty"`
	Seed           *int64  `json:"seed,omitempty"`
	Steps          int     `json:"steps,omitempty"`
	Output         string  `json:"output,omitempty"`
}

func (i Input) toImageParams() image.Params {
	return image.Params{
		Prompt:         i.Prompt,
		NegativePrompt: i.NegativePrompt,
		SamplerConfig: image.SamplerConfig{
			CfgScale: i.CfgScale,
			Sampler:  i.Sampler,
			Seed:     lo.FromPtr(i.Seed),
			Steps:    i.Steps,
		},
	}
}

func (i Input) toMetadata() map[string]string {
	return map[string]string{
		"prompt":          i.Prompt,
		"negative-prompt": i.NegativePrompt,
		"cfg-scale":       strconv.FormatFloat(i.CfgScale, 'f', -1, 64),
		"sampler":         i.Sampler,
		"seed":            strconv.FormatInt(lo.FromPtr(i.Seed), 10),
		"steps":           strconv.Itoa(i.Steps),
	}
}

// withDefaults fills every unset field from the configured defaults. A nil
// Seed is unset; an explicit 0 asks the API to pick the seed.
func (i Input) withDefaults(d Input) Input {
	return Input{
		Prompt:         lo.Ternary(i.Prompt != "", i.Prompt, d.Prompt),
		NegativePrompt: lo.Ternary(i.NegativePrompt != "", i.NegativePrompt, d.NegativePrompt),
		CfgScale:       lo.Ternary(i.CfgScale != 0, i.CfgScale, d.CfgScale),
		Sampler:        lo.Ternary(i.Sampler != "", i.Sampler, d.Sampler),
		Seed:           lo.Ternary(i.Seed != nil, i.Seed, d.Seed),
		Steps:          lo.Ternary(i.Steps != 0, i.Steps, d.Steps),
		Output:         lo.Ternary(i.Output != "", i.Output, d.Output),
	}
}

type Output struct {
	Input
	Location string `json:"location"`
	Size     int    `json:"size"`
}

type Handler struct {
	defaults    Input
	randomizer  *prompt.Randomizer
	generator   image.Generator
	uploader    store.Uploader
	invalidator store.Invalidator
}

func New(defaults Input, randomizer *prompt.Randomizer, generator image.Generator, uploader store.Uploader, invalidator store.Invalidator) *Handler {
	return &Handler{
		defaults:    defaults,
		randomizer:  randomizer,
		generator:   generator,
		uploader:    uploader,
		invalidator: invalidator,
	}
}

func NewHandler(i *do.Injector) (*Handler, error) {
	cfg, err := do.Invoke[*config.Config](i)
	if err != nil {
		return nil, err
	}
	randomizer, err := do.Invoke[*prompt.Randomizer](i)
	if err != nil {
		return nil, err
	}
	generator, err := do.Invoke[image.Generator](i)
	if err != nil {
		return nil, err
	}
	uploader, err := do.Invoke[store.Uploader](i)
	if err != nil {
		return nil, err
	}
	invalidator, err := do.Invoke[store.Invalidator](i)
	if err != nil {
		return nil, err
	}

	defaults := Input{
		Prompt:         cfg.Prompt,
		NegativePrompt: cfg.NegativePrompt,
		CfgScale:       cfg.CfgScale,
		Sampler:        cfg.Sampler,
		Seed:           lo.ToPtr(cfg.Seed),
		Steps:          cfg.Steps,
		Output:         cfg.Output,
	}
	return New(defaults, randomizer, generator, uploader, invalidator), nil
}

func (h *Handler) Handle(ctx context.Context, input Input) (Output, error) {
	input = input.withDefaults(h.defaults)

	log := log.FromContextOrDiscard(ctx).WithGroup("handler").With("input", input)
	log.Info("handling invocation")

	if input.Prompt == "" {
		positive, negative, err := h.randomizer.Randomize(ctx)
		if err != nil {
			return Output{}, err
		}
		input.Prompt = positive
		input.NegativePrompt = lo.Ternary(input.NegativePrompt != "", input.NegativePrompt, negative)
	}

	img, err := h.generator.Generate(ctx, input.toImageParams())
	if err != nil {
		return Output{}, err
	}

	location, err := h.uploader.Upload(ctx, store.UploadParams{
		Name:     input.Output,
		Data:     img,
		Metadata: input.toMetadata(),
	})
	if err != nil {
		return Output{}, err
	}

	if err := h.invalidator.Invalidate(ctx, []string{"/" + strings.TrimPrefix(input.Output, "/")}); err != nil {
		return Output{}, err
	}

	log.Info("image stored", "location", location, "bytes", len(img))
	return Output{Input: input, Location: location, Size: len(img)}, nil
}
