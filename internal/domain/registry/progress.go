package registry

// Sink receives registry-build progress. Implementations render it however
// they like (the WS handler forwards it to the client); the build algorithm
// only guarantees that fractions are non-decreasing, reach 1.0 exactly at
// completion, and that Close is called on every exit path.
type Sink interface {
	Advance(fraction float64, label string)
	Close()
}

// NopSink discards progress.
type NopSink struct{}

func (NopSink) Advance(float64, string) {}
func (NopSink) Close()                  {}
