package image

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/dmorgan81/sdxlgen/internal/errs"
	"github.com/dmorgan81/sdxlgen/internal/log"
	"github.com/samber/do"
)

const (
	DefaultEndpoint = "https://ai.api.nvidia.com/v1/genai/stabilityai/stable-diffusion-xl"
	KeyPrefix       = "nvapi-"

	maxDetail = 512
)

type TextPrompt struct {
	Text   string  `json:"text"`
	Weight float64 `json:"weight"`
}

type Request struct {
	TextPrompts []TextPrompt `json:"text_prompts"`
	SamplerConfig
}

func NewRequest(params Params) Request {
	return Request{
		TextPrompts: []TextPrompt{
			{Text: params.Prompt, Weight: 1},
			{Text: params.NegativePrompt, Weight: -1},
		},
		SamplerConfig: params.SamplerConfig,
	}
}

type Artifact struct {
	Base64       string `json:"base64"`
	Seed         int64  `json:"seed,omitempty"`
	FinishReason string `json:"finishReason,omitempty"`
}

type Response struct {
	Artifacts []Artifact `json:"artifacts"`
}

// KeyFunc resolves the API key. It is called once per Generate.
type KeyFunc func(context.Context) (string, error)

type NvidiaGenerator struct {
	Client   *http.Client
	Endpoint string
	Key      string
	KeyFunc  KeyFunc
}

func NewNvidiaGenerator(i *do.Injector) (Generator, error) {
	client, err := do.Invoke[*http.Client](i)
	if err != nil {
		return nil, err
	}
	endpoint, err := do.InvokeNamed[string](i, "endpoint")
	if err != nil {
		return nil, err
	}
	keyFunc, err := do.InvokeNamed[KeyFunc](i, "api_key")
	if err != nil {
		return nil, err
	}
	return &NvidiaGenerator{Client: client, Endpoint: endpoint, KeyFunc: keyFunc}, nil
}

// ValidateKey reports whether key looks like an NVIDIA API key. The key itself
// never appears in the returned error.
func ValidateKey(key string) error {
	if key == "" {
		return errs.Configuration("api key is not set")
	}
	if !strings.HasPrefix(key, KeyPrefix) {
		return errs.Configuration("api key must start with %q", KeyPrefix)
	}
	return nil
}

func (g *NvidiaGenerator) Generate(ctx context.Context, params Params) ([]byte, error) {
	key, err := g.key(ctx)
	if err != nil {
		return nil, err
	}
	if err := ValidateKey(key); err != nil {
		return nil, err
	}
	if params.Prompt == "" {
		return nil, errs.Configuration("prompt is empty")
	}
	if params.Steps <= 0 {
		return nil, errs.Configuration("steps must be positive, got %d", params.Steps)
	}

	log := log.FromContextOrDiscard(ctx).WithGroup("nvidia").With(
		"prompt", params.Prompt,
		"negative_prompt", params.NegativePrompt,
		"sampler", params.Sampler,
		"seed", params.Seed,
		"steps", params.Steps,
	)
	log.Info("generating image", "endpoint", g.endpoint())

	body, err := json.Marshal(NewRequest(params))
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint(), bytes.NewReader(body))
	if err != nil {
		return nil, errs.Configuration("bad endpoint: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+key)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client().Do(req)
	if err != nil {
		return nil, fmt.Errorf("post %s: %w", g.endpoint(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, maxDetail))
		return nil, &errs.UpstreamError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Detail:     strings.TrimSpace(string(detail)),
		}
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	var out Response
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, errs.ResponseFormat("decode body: %v", err)
	}
	if len(out.Artifacts) == 0 {
		return nil, errs.ResponseFormat("no artifacts in response")
	}
	artifact := out.Artifacts[0]
	if artifact.Base64 == "" {
		return nil, errs.ResponseFormat("artifact has no base64 payload")
	}

	data, err := base64.StdEncoding.DecodeString(artifact.Base64)
	if err != nil {
		return nil, errs.ResponseFormat("decode artifact: %v", err)
	}
	log.Info("received image", "bytes", len(data), "artifact_seed", artifact.Seed, "finish_reason", artifact.FinishReason)
	return data, nil
}

func (g *NvidiaGenerator) key(ctx context.Context) (string, error) {
	if g.KeyFunc == nil {
		return g.Key, nil
	}
	key, err := g.KeyFunc(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: resolve api key: %w", errs.ErrConfiguration, err)
	}
	return key, nil
}

func (g *NvidiaGenerator) endpoint() string {
	if g.Endpoint == "" {
		return DefaultEndpoint
	}
	return g.Endpoint
}

func (g *NvidiaGenerator) client() *http.Client {
	if g.Client == nil {
		return http.DefaultClient
	}
	return g.Client
}
