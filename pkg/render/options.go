package render

import "go.uber.org/zap"

// Option configures a Renderer.
type Option func(*Renderer)

// WithLogger routes renderer diagnostics to logger.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Renderer) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithAssets sets the resolvers used for asset references. Without it,
// any asset reference fails with ErrAssetMissing.
func WithAssets(assets *Registry) Option {
	return func(r *Renderer) {
		if assets != nil {
			r.assets = assets
		}
	}
}

// WithSanitizer filters every text run before it is written to a slide.
func WithSanitizer(s Sanitizer) Option {
	return func(r *Renderer) {
		r.sanitizer = s
	}
}
