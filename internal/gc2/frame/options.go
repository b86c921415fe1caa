package frame

// Option applies a configuration option to the Assembler.
type Option func(*Assembler)

// WithMaxBuffer sets the internal buffer bound in bytes.
func WithMaxBuffer(n int) Option {
	return func(a *Assembler) {
		if n > 0 {
			a.maxBuffer = n
		}
	}
}
