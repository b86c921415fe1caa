package dedupe

// Option applies a configuration option to the deduper.
type Option func(*inMemoryDeduper)

// WithMaxSize bounds the number of remembered shot ids.
func WithMaxSize(size int) Option {
	return func(d *inMemoryDeduper) {
		if size > 0 {
			d.maxSize = size
		}
	}
}
