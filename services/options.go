package services

import "time"

type options struct {
	now func() time.Time
}

// Option customizes a service at construction.
type Option func(*options)

// WithClock replaces the wall clock used for "in the future" checks.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
