package filekit

import "time"

const (
	KB int64 = 1 << 10
	MB int64 = 1 << 20
)

// Limits holds the resource ceilings applied by the pipeline.
type Limits struct {
	// Ceilings maps a tool category to its maximum file size in bytes.
	Ceilings map[string]int64
	// DefaultCeiling applies to categories missing from Ceilings.
	DefaultCeiling int64

	// Capacity is the largest projected in-memory decode cost, in bytes,
	// a transformation may take on.
	Capacity int64
	// CapacityFactors maps a tool slug to the multiplier applied to the
	// file size to project its decode cost. Tools without a factor are not
	// capacity checked.
	CapacityFactors map[string]float64
}

// DefaultLimits returns the built-in ceilings.
func DefaultLimits() Limits {
	return Limits{
		Ceilings: map[string]int64{
			"Convert PDF":   100 * MB,
			"Organize PDF":  100 * MB,
			"Edit PDF":      100 * MB,
			"Optimize PDF":  100 * MB,
			"PDF Security":  100 * MB,
			"Image Tools":   25 * MB,
			"Audio Tools":   50 * MB,
			"Video Tools":   200 * MB,
			"Utility Tools": 10 * MB,
		},
		DefaultCeiling: 100 * MB,
		Capacity:       512 * MB,
		CapacityFactors: map[string]float64{
			"pdf-to-jpg":       8,
			"pdf-to-word":      3,
			"merge-pdf":        2,
			"image-converter":  6,
			"image-resizer":    6,
			"image-compressor": 6,
		},
	}
}

// CeilingFor returns the size ceiling for a category.
func (l Limits) CeilingFor(category string) int64 {
	if c, ok := l.Ceilings[category]; ok {
		return c
	}
	return l.DefaultCeiling
}

// projectedCost estimates the decode cost of a file of size bytes for the
// tool. ok is false when the tool is not capacity checked.
func (l Limits) projectedCost(slug string, size int64) (cost int64, ok bool) {
	f, ok := l.CapacityFactors[slug]
	if !ok || f <= 0 || l.Capacity <= 0 {
		return 0, false
	}
	return int64(float64(size) * f), true
}

// Progress configures the artificial progress ticker.
type Progress struct {
	Interval time.Duration
	Step     int
	// Ceiling is the highest value reported before a run resolves.
	Ceiling int
}

// DefaultProgress ticks +5 every 200ms up to 95.
func DefaultProgress() Progress {
	return Progress{Interval: 200 * time.Millisecond, Step: 5, Ceiling: 95}
}

func (p Progress) resolved() Progress {
	d := DefaultProgress()
	if p.Interval <= 0 {
		p.Interval = d.Interval
	}
	if p.Step <= 0 {
		p.Step = d.Step
	}
	if p.Ceiling <= 0 || p.Ceiling >= 100 {
		p.Ceiling = d.Ceiling
	}
	return p
}
