package http

import (
	"context"
	"net/http"
)

type Option func(*Options)

type Options struct {
	Address    string
	UploadDir  string
	Middleware []func(h http.Handler) http.Handler
	Context    context.Context
}

func WithAddress(address string) Option {
	return func(o *Options) {
		o.Address = address
	}
}

func WithUploadDir(dir string) Option {
	return func(o *Options) {
		o.UploadDir = dir
	}
}

func WithMiddleware(ms ...func(h http.Handler) http.Handler) Option {
	return func(o *Options) {
		o.Middleware = append(o.Middleware, ms...)
	}
}

func NewOptions(opts ...Option) Options {
	options := Options{
		Address:   ":8000",
		UploadDir: "uploads",
		Context:   context.Background(),
	}
	for _, opt := range opts {
		opt(&options)
	}
	return options
}
