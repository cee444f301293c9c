// FILE: lixenwraith/fanlog/compat/builder.go
package compat

import (
	log "github.com/lixenwraith/fanlog"
	"github.com/lixenwraith/fanlog/internal/logerr"
)

// Builder creates gnet and fasthttp adapters over one shared logger.
// An existing logger set through WithLogger takes precedence over WithConfig.
type Builder struct {
	logger *log.Logger
	logCfg *log.Config
	owned  bool
	err    error
}

// NewBuilder creates a new adapter builder
func NewBuilder() *Builder {
	return &Builder{}
}

// WithLogger specifies an existing logger to use for the adapters
func (b *Builder) WithLogger(l *log.Logger) *Builder {
	if l == nil {
		b.err = logerr.Configf("compat", "provided logger cannot be nil")
		return b
	}
	b.logger = l
	return b
}

// WithConfig provides the configuration for a logger built on first use
func (b *Builder) WithConfig(cfg *log.Config) *Builder {
	b.logCfg = cfg
	return b
}

func (b *Builder) getLogger() (*log.Logger, error) {
	if b.err != nil {
		return nil, b.err
	}
	if b.logger != nil {
		return b.logger, nil
	}

	cfg := b.logCfg
	if cfg == nil {
		cfg = log.DefaultConfig()
	}

	l, err := log.New(cfg)
	if err != nil {
		return nil, err
	}

	b.logger = l
	b.owned = true
	return l, nil
}

// BuildGnet creates a gnet adapter
func (b *Builder) BuildGnet(opts ...GnetOption) (*GnetAdapter, error) {
	l, err := b.getLogger()
	if err != nil {
		return nil, err
	}
	return NewGnetAdapter(l, opts...), nil
}

// BuildFastHTTP creates a fasthttp adapter
func (b *Builder) BuildFastHTTP(opts ...FastHTTPOption) (*FastHTTPAdapter, error) {
	l, err := b.getLogger()
	if err != nil {
		return nil, err
	}
	return NewFastHTTPAdapter(l, opts...), nil
}

// GetLogger returns the underlying logger, building it if needed
func (b *Builder) GetLogger() (*log.Logger, error) {
	return b.getLogger()
}

// Close closes the logger if this builder created it. Loggers passed
// through WithLogger belong to the caller and are left open.
func (b *Builder) Close() error {
	if !b.owned || b.logger == nil {
		return nil
	}
	return b.logger.Close()
}

// Example:
//
//	appLogger, _ := log.NewBuilder().Name("server").Async(4096, log.DiscardLogMsg).Build()
//	defer appLogger.Close()
//
//	b := compat.NewBuilder().WithLogger(appLogger)
//	gnetLogger, _ := b.BuildGnet()
//	gnet.Run(handler, "tcp://:9000", gnet.WithLogger(gnetLogger))
//
//	httpLogger, _ := b.BuildFastHTTP()
//	srv := &fasthttp.Server{Handler: h, Logger: httpLogger}
