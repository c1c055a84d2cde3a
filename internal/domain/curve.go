package domain

import (
	"errors"
	"math"
	"sort"
)

// Curve construction rules enforced before a round may leave graph-creation.
const (
	MinAnchorPoints = 5
	MaxAnchorPoints = 10
	MinScoreSpread  = 50

	// anchorDeleteTolerance is how close a re-click must land to an existing
	// point's score for the click to delete it instead of moving it.
	anchorDeleteTolerance = 5
)

var (
	ErrTooManyPoints   = errors.New("at most 10 anchor points may be placed")
	ErrTooFewPoints    = errors.New("at least 5 anchor points are required")
	ErrMissingEndpoint = errors.New("anchor points at age 0 and the company age are required")
	ErrFlatCurve       = errors.New("score spread of at least 50 is required")
)

// AnchorPoint is one (age, score) control point of a company's life curve.
type AnchorPoint struct {
	Age   int `json:"age"`
	Score int `json:"score"`
}

// ToggleAnchorPoint applies one click at (age, score) to the working point
// set. A click on an occupied age deletes the point when the new score is
// within tolerance of the old one, and moves it otherwise. A click on a free
// age places a new point up to the maximum. The returned slice is a new,
// age-sorted copy.
func ToggleAnchorPoint(points []AnchorPoint, age, score int) ([]AnchorPoint, error) {
	updated := append([]AnchorPoint(nil), points...)
	for i, p := range updated {
		if p.Age != age {
			continue
		}
		if abs(p.Score-score) < anchorDeleteTolerance {
			return append(updated[:i], updated[i+1:]...), nil
		}
		updated[i].Score = score
		sortByAge(updated)
		return updated, nil
	}

	if len(updated) >= MaxAnchorPoints {
		return points, ErrTooManyPoints
	}
	updated = append(updated, AnchorPoint{Age: age, Score: score})
	sortByAge(updated)
	return updated, nil
}

// ValidateCurve checks the graph-creation invariants for a company of the
// given age. Ages are assumed unique, which ToggleAnchorPoint guarantees.
func ValidateCurve(points []AnchorPoint, companyAge int) error {
	hasStart, hasEnd := false, false
	for _, p := range points {
		if p.Age == 0 {
			hasStart = true
		}
		if p.Age == companyAge {
			hasEnd = true
		}
	}
	if !hasStart || !hasEnd {
		return ErrMissingEndpoint
	}
	if len(points) < MinAnchorPoints {
		return ErrTooFewPoints
	}
	if len(points) > MaxAnchorPoints {
		return ErrTooManyPoints
	}
	minScore, maxScore := points[0].Score, points[0].Score
	for _, p := range points[1:] {
		if p.Score < minScore {
			minScore = p.Score
		}
		if p.Score > maxScore {
			maxScore = p.Score
		}
	}
	if maxScore-minScore < MinScoreSpread {
		return ErrFlatCurve
	}
	return nil
}

// InterpolateScore evaluates the piecewise-linear curve at the given age,
// rounded to the nearest integer. Ages beyond the first or last anchor clamp
// to the nearest endpoint's score. Points must be sorted by age.
func InterpolateScore(points []AnchorPoint, age int) int {
	if len(points) == 0 {
		return 0
	}
	if age <= points[0].Age {
		return points[0].Score
	}
	last := points[len(points)-1]
	if age >= last.Age {
		return last.Score
	}
	i := 0
	for i < len(points)-1 && points[i+1].Age <= age {
		i++
	}
	if points[i].Age == age {
		return points[i].Score
	}
	lo, hi := points[i], points[i+1]
	t := float64(age-lo.Age) / float64(hi.Age-lo.Age)
	return int(math.Round(float64(lo.Score) + t*float64(hi.Score-lo.Score)))
}

func sortByAge(points []AnchorPoint) {
	sort.Slice(points, func(i, j int) bool { return points[i].Age < points[j].Age })
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
