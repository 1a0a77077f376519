// Package breaker implements the circuit breaker (C7): it compares a
// freshly crawled notice count against the previous run's count and
// decides whether the new snapshot is safe to commit, per spec.md
// §4.7.
package breaker

// Config holds the circuit breaker's thresholds.
type Config struct {
	MaxDropPercent  int  // default 20
	MinBaseline     int  // default 10
	AllowColdStart  bool // default true
}

// DefaultConfig returns the breaker's default thresholds.
func DefaultConfig() Config {
	return Config{
		MaxDropPercent: 20,
		MinBaseline:    10,
		AllowColdStart: true,
	}
}

// Decision names the outcome of a circuit breaker check.
type Decision string

const (
	Safe       Decision = "safe"
	ColdStart  Decision = "cold_start"
	Triggered  Decision = "triggered"
	EmptyResult Decision = "empty_result"
)

// Result is the full circuit breaker verdict for one crawl.
type Result struct {
	Decision       Decision
	CurrentCount   int
	PreviousCount  int
	DropPercent    float64
}

// Breaker checks crawl counts against its configured thresholds.
type Breaker struct {
	cfg Config
}

// New builds a Breaker with cfg.
func New(cfg Config) *Breaker {
	return &Breaker{cfg: cfg}
}

// Check implements spec.md §4.7's decision table over
// (current_count, previous_count).
func (b *Breaker) Check(currentCount, previousCount int) Result {
	if currentCount == 0 {
		if previousCount == 0 && b.cfg.AllowColdStart {
			return Result{Decision: ColdStart, CurrentCount: currentCount, PreviousCount: previousCount}
		}
		return Result{Decision: EmptyResult, CurrentCount: currentCount, PreviousCount: previousCount}
	}

	if previousCount < b.cfg.MinBaseline {
		return Result{Decision: ColdStart, CurrentCount: currentCount, PreviousCount: previousCount}
	}

	if currentCount < previousCount {
		drop := previousCount - currentCount
		dropPercent := float64(drop) / float64(previousCount) * 100

		if dropPercent > float64(b.cfg.MaxDropPercent) {
			return Result{
				Decision:      Triggered,
				CurrentCount:  currentCount,
				PreviousCount: previousCount,
				DropPercent:   dropPercent,
			}
		}
	}

	return Result{Decision: Safe, CurrentCount: currentCount, PreviousCount: previousCount}
}

// Safe reports whether r allows the write to proceed.
func (r Result) Safe() bool {
	return r.Decision == Safe || r.Decision == ColdStart
}
