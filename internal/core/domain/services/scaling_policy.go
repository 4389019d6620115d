package services

// StepAdjustment maps a metric range [Lower, Upper) to a capacity delta.
// A negative Upper means the range is unbounded.
type StepAdjustment struct {
	Lower  int64
	Upper  int64
	Change int
}

func (s StepAdjustment) Contains(metric int64) bool {
	if metric < s.Lower {
		return false
	}
	return s.Upper < 0 || metric < s.Upper
}

// StepPolicy is an ordered list of non-overlapping steps. A metric no step
// covers produces no action.
type StepPolicy struct {
	Steps []StepAdjustment
}

// DefaultScaleOutPolicy reacts to the number of visible queue messages.
func DefaultScaleOutPolicy() StepPolicy {
	return StepPolicy{Steps: []StepAdjustment{
		{Lower: 1, Upper: 2, Change: 1},
		{Lower: 2, Upper: 5, Change: 3},
		{Lower: 5, Upper: 10, Change: 7},
		{Lower: 10, Upper: 20, Change: 10},
		{Lower: 20, Upper: -1, Change: 20},
	}}
}

// DefaultScaleInPolicy reacts to the number of in-flight messages. Any
// in-flight work blocks scale-in.
func DefaultScaleInPolicy() StepPolicy {
	return StepPolicy{Steps: []StepAdjustment{
		{Lower: 0, Upper: 1, Change: -1},
		{Lower: 1, Upper: -1, Change: 0},
	}}
}

// Delta returns the capacity change for metric. ok is false when the change
// is zero.
func (p StepPolicy) Delta(metric int64) (delta int, ok bool) {
	for _, step := range p.Steps {
		if step.Contains(metric) {
			return step.Change, step.Change != 0
		}
	}
	return 0, false
}

// CapacityBounds clamps worker capacity.
type CapacityBounds struct {
	Min int
	Max int
}

// Apply returns current+delta clamped to the bounds and whether the result
// differs from current.
func (b CapacityBounds) Apply(current, delta int) (int, bool) {
	target := max(b.Min, min(b.Max, current+delta))
	return target, target != current
}
