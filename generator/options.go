package generator

import "context"

type Option func(*Options)

type Options struct {
	ApiKey  string
	Model   string
	Context context.Context
}

func WithApiKey(apiKey string) Option {
	return func(o *Options) {
		o.ApiKey = apiKey
	}
}

func WithModel(model string) Option {
	return func(o *Options) {
		o.Model = model
	}
}

func NewOptions(opts ...Option) Options {
	options := Options{
		Context: context.Background(),
	}
	for _, opt := range opts {
		opt(&options)
	}
	return options
}

type GenerateOption func(*GenerateOptions)

type GenerateOptions struct {
	Temperature float32
	MaxTokens   int
	Context     context.Context
}

func WithTemperature(temperature float32) GenerateOption {
	return func(o *GenerateOptions) {
		o.Temperature = temperature
	}
}

func WithMaxTokens(maxTokens int) GenerateOption {
	return func(o *GenerateOptions) {
		o.MaxTokens = maxTokens
	}
}

func NewGenerateOptions(opts ...GenerateOption) GenerateOptions {
	options := GenerateOptions{
		MaxTokens: 1024,
		Context:   context.Background(),
	}
	for _, opt := range opts {
		opt(&options)
	}
	return options
}
