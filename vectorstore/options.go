package vectorstore

import "context"

type Option func(*Options)

type Options struct {
	Location   string
	ApiKey     string
	VectorSize int
	Distance   string
	Context    context.Context
}

func WithLocation(loc string) Option {
	return func(o *Options) {
		o.Location = loc
	}
}

func WithApiKey(apiKey string) Option {
	return func(o *Options) {
		o.ApiKey = apiKey
	}
}

func WithVectorSize(size int) Option {
	return func(o *Options) {
		o.VectorSize = size
	}
}

func WithDistance(distance string) Option {
	return func(o *Options) {
		o.Distance = distance
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
