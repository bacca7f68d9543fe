package detector

// Option applies a configuration option to the Detector.
type Option func(*Detector)

// WithSmoother replaces the Butterworth filter built from Config.Filter.
func WithSmoother(s Smoother) Option {
	return func(d *Detector) {
		if s != nil {
			d.smoother = s
		}
	}
}

// WithWindowSize overrides the window length, which defaults to one second of samples.
func WithWindowSize(n int) Option {
	return func(d *Detector) {
		if n > 0 {
			d.windowSize = n
		}
	}
}
