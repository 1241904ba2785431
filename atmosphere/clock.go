package atmosphere

// Interval is the model time span covered by the last Update, seconds.
type Interval struct {
	Start    float64
	Duration float64
}

// End returns Start + Duration.
func (iv Interval) End() float64 { return iv.Start + iv.Duration }

// Mid returns the midpoint of the interval.
func (iv Interval) Mid() float64 { return iv.Start + 0.5*iv.Duration }

// Clock records the interval of the most recent Update.  A cleared clock
// means the model has not been updated since its last Init.
type Clock struct {
	iv  Interval
	set bool
}

// Reset clears the clock.
func (c *Clock) Reset() { *c = Clock{} }

// Set stores the interval [t, t+dt].
func (c *Clock) Set(t, dt float64) {
	c.iv = Interval{Start: t, Duration: dt}
	c.set = true
}

// Current returns the stored interval and whether one is set.
func (c Clock) Current() (Interval, bool) { return c.iv, c.set }

// IsSet reports whether the model has been updated since Init.
func (c Clock) IsSet() bool { return c.set }
