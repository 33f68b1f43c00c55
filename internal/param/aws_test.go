package param

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSSM struct {
	params map[string]string
	pages  [][]types.Parameter
	calls  int
	err    error
}

func (f *fakeSSM) GetParameter(_ context.Context, in *ssm.GetParameterInput, _ ...func(*ssm.Options)) (*ssm.GetParameterOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	if !aws.ToBool(in.WithDecryption) {
		return nil, errors.New("decryption not requested")
	}
	v, ok := f.params[aws.ToString(in.Name)]
	if !ok {
		return nil, &types.ParameterNotFound{}
	}
	return &ssm.GetParameterOutput{Parameter: &types.Parameter{Value: aws.String(v)}}, nil
}

func (f *fakeSSM) GetParametersByPath(_ context.Context, in *ssm.GetParametersByPathInput, _ ...func(*ssm.Options)) (*ssm.GetParametersByPathOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	page := f.calls
	f.calls++
	out := &ssm.GetParametersByPathOutput{Parameters: f.pages[page]}
	if page+1 < len(f.pages) {
		out.NextToken = aws.String("next")
	}
	return out, nil
}

func TestFetch(t *testing.T) {
	f := &ParameterStoreFetcher{client: &fakeSSM{params: map[string]string{"/sdxl/key": "nvapi-secret"}}}

	v, err := f.Fetch(context.Background(), "/sdxl/key")
	require.NoError(t, err)
	assert.Equal(t, "nvapi-secret", v)

	_, err = f.Fetch(context.Background(), "/sdxl/missing")
	var notFound *types.ParameterNotFound
	assert.ErrorAs(t, err, &notFound)
}

func TestFetchAllPaginates(t *testing.T) {
	client := &fakeSSM{pages: [][]types.Parameter{
		{{Value: aws.String("a")}, {Value: aws.String("b")}},
		{{Value: aws.String("c|blurry")}},
	}}
	f := &ParameterStoreFetcher{client: client}

	v, err := f.FetchAll(context.Background(), "/sdxl/prompts")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c|blurry"}, v)
	assert.Equal(t, 2, client.calls)
}

func TestFetchAllError(t *testing.T) {
	cause := errors.New("throttled")
	f := &ParameterStoreFetcher{client: &fakeSSM{err: cause}}

	_, err := f.FetchAll(context.Background(), "/sdxl/prompts")
	assert.ErrorIs(t, err, cause)
}
