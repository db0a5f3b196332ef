package spinglass

import "fmt"

// AnnealType selects the anneal protocol.
type AnnealType string

const (
	AnnealStandard AnnealType = "standard"
	AnnealFast     AnnealType = "fast"
)

// DefaultAnnealTime is the anneal time offered before the user picks one, in
// microseconds.
const DefaultAnnealTime = 500.0

// IsValidAnnealType reports whether name is a known anneal protocol.
func IsValidAnnealType(name string) bool {
	return name == string(AnnealStandard) || name == string(AnnealFast)
}

// TimeRange is an inclusive range of anneal times in microseconds.
type TimeRange struct {
	Min float64 `yaml:"min" json:"min"`
	Max float64 `yaml:"max" json:"max"`
}

// IsEmpty reports whether no anneal time satisfies the range.
func (r TimeRange) IsEmpty() bool { return r.Min > r.Max }

// Contains reports whether t lies inside the range.
func (r TimeRange) Contains(t float64) bool { return t >= r.Min && t <= r.Max }

// Intersect returns the times allowed by both ranges.
func (r TimeRange) Intersect(o TimeRange) TimeRange {
	return TimeRange{Min: max(r.Min, o.Min), Max: min(r.Max, o.Max)}
}

func (r TimeRange) String() string {
	return fmt.Sprintf("[%g, %g] µs", r.Min, r.Max)
}

// AnnealRanges are the anneal time ranges one solver advertises.
type AnnealRanges struct {
	Standard TimeRange `yaml:"standard" json:"standard"`
	Fast     TimeRange `yaml:"fast" json:"fast"`
}

// For returns the range for an anneal type.
func (a AnnealRanges) For(t AnnealType) (TimeRange, error) {
	switch t {
	case AnnealStandard:
		return a.Standard, nil
	case AnnealFast:
		return a.Fast, nil
	default:
		return TimeRange{}, &ValidationError{Field: "anneal_type", Msg: fmt.Sprintf("unknown anneal type %q; valid: standard, fast", t)}
	}
}

// Intersect returns the ranges both solvers accept.
func (a AnnealRanges) Intersect(o AnnealRanges) AnnealRanges {
	return AnnealRanges{
		Standard: a.Standard.Intersect(o.Standard),
		Fast:     a.Fast.Intersect(o.Fast),
	}
}

// AnnealSpec is the anneal protocol applied identically to both systems.
type AnnealSpec struct {
	Type AnnealType `yaml:"type" json:"type"`
	Time float64    `yaml:"time" json:"time"` // microseconds
}

// Validate rejects an anneal time outside the shared range for its type.
func (s AnnealSpec) Validate(ranges AnnealRanges) error {
	r, err := ranges.For(s.Type)
	if err != nil {
		return err
	}
	if r.IsEmpty() {
		return &ValidationError{Field: "anneal_type", Msg: fmt.Sprintf("the selected systems share no %s anneal time range", s.Type)}
	}
	if !r.Contains(s.Time) {
		return &ValidationError{Field: "anneal_time", Msg: fmt.Sprintf("%s anneal time must be between %g and %g µs, got %g", s.Type, r.Min, r.Max, s.Time)}
	}
	return nil
}
