package openai

import (
	"context"
	"errors"
	"math"

	"github.com/sashabaranov/go-openai"
	"github.com/w-h-a/medrecord/generator"
)

type openAIGenerator struct {
	options generator.Options
	client  *openai.Client
}

func (g *openAIGenerator) Generate(ctx context.Context, messages []generator.Message, opts ...generator.GenerateOption) (string, error) {
	options := generator.NewGenerateOptions(opts...)

	msgs := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		msgs = append(msgs, openai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		})
	}

	// the client drops a zero temperature on the wire, which would fall
	// back to the API default instead of fully deterministic sampling
	temperature := options.Temperature
	if temperature == 0 {
		temperature = math.SmallestNonzeroFloat32
	}

	req := openai.ChatCompletionRequest{
		Model:       g.options.Model,
		Messages:    msgs,
		Temperature: temperature,
		MaxTokens:   options.MaxTokens,
	}

	rsp, err := g.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", err
	}

	if len(rsp.Choices) == 0 || len(rsp.Choices[0].Message.Content) == 0 {
		return "", errors.New("no response from OpenAI")
	}

	return rsp.Choices[0].Message.Content, nil
}

func NewGenerator(opts ...generator.Option) generator.Generator {
	options := generator.NewOptions(opts...)

	g := &openAIGenerator{
		options: options,
	}

	client := openai.NewClient(options.ApiKey)

	g.client = client

	return g
}
