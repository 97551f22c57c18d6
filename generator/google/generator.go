package google

import (
	"context"
	"errors"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/w-h-a/medrecord/generator"
	genaiopt "google.golang.org/api/option"
)

type googleGenerator struct {
	options generator.Options
	client  *genai.Client
}

func (g *googleGenerator) Generate(ctx context.Context, messages []generator.Message, opts ...generator.GenerateOption) (string, error) {
	options := generator.NewGenerateOptions(opts...)

	model := g.client.GenerativeModel(g.options.Model)
	model.SetTemperature(options.Temperature)
	model.SetMaxOutputTokens(int32(options.MaxTokens))

	var parts []genai.Part
	for _, m := range messages {
		if m.Role == generator.RoleSystem {
			model.SystemInstruction = &genai.Content{
				Parts: []genai.Part{genai.Text(m.Content)},
			}
			continue
		}
		parts = append(parts, genai.Text(m.Content))
	}

	rsp, err := model.GenerateContent(ctx, parts...)
	if err != nil {
		return "", err
	}

	if len(rsp.Candidates) == 0 || rsp.Candidates[0].Content == nil || len(rsp.Candidates[0].Content.Parts) == 0 {
		return "", errors.New("no response from Google")
	}

	var b strings.Builder
	for _, part := range rsp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}

	return b.String(), nil
}

func NewGenerator(opts ...generator.Option) generator.Generator {
	options := generator.NewOptions(opts...)

	g := &googleGenerator{
		options: options,
	}

	client, err := genai.NewClient(
		context.Background(),
		genaiopt.WithAPIKey(options.ApiKey),
	)
	if err != nil {
		panic(err)
	}

	g.client = client

	return g
}
