package envelope

// Option adjusts how a value is normalized.
type Option func(*settings)

type settings struct {
	forceSequence bool
}

// WithForceSequence boxes a value of unrecognized shape into a one-element
// sequence instead of dropping it.
func WithForceSequence() Option {
	return func(s *settings) {
		s.forceSequence = true
	}
}

func apply(opts []Option) settings {
	var s settings
	for _, opt := range opts {
		if opt != nil {
			opt(&s)
		}
	}
	return s
}
