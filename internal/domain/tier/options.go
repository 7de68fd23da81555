package tier

// Option applies a configuration option to the Classifier.
type Option func(*Classifier)

// WithThresholds replaces the threshold table. Tables that would not
// partition [0,100] are ignored.
func WithThresholds(t Thresholds) Option {
	return func(c *Classifier) {
		if t.Valid() {
			c.thresholds = t
		}
	}
}

// WithMissingPolicy sets how missing scores are rendered.
func WithMissingPolicy(p MissingPolicy) Option {
	return func(c *Classifier) {
		if p == MissingAsUnrated || p == MissingAsLowest {
			c.missing = p
		}
	}
}

// WithZeroAsMissing treats an exact 0 as "no score yet".
func WithZeroAsMissing(enabled bool) Option {
	return func(c *Classifier) {
		c.zeroMissing = enabled
	}
}
