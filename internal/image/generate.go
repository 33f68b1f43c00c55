package image

import "context"

type SamplerConfig struct {
	CfgScale float64 `json:"cfg_scale"`
	Sampler  string  `json:"sampler"`
	Seed     int64   `json:"seed"`
	Steps    int     `json:"steps"`
}

type Params struct {
	Prompt         string
	NegativePrompt string
	SamplerConfig
}

type Generator interface {
	Generate(context.Context, Params) ([]byte, error)
}
