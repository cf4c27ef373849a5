package dedupe

// defaultCapacity comfortably covers the events of several full matches.
const defaultCapacity = 50000

// Option configures the ring deduper.
type Option func(*ringDeduper)

// WithCapacity sets how many IDs the ring retains before the oldest is
// forgotten. Values below one are clamped to one.
func WithCapacity(n int) Option {
	return func(d *ringDeduper) {
		d.capacity = n
	}
}
