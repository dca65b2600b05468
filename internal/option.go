package internal

import "fmt"

// Option configures the vault application.
type Option func(*application)

type application struct {
	config *Config
}

// WithConfig supplies the loaded configuration. It is required.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// newApplication applies the options and checks required fields.
func newApplication(opts ...Option) (*application, error) {
	a := &application{}
	for _, opt := range opts {
		opt(a)
	}
	if a.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	return a, nil
}
