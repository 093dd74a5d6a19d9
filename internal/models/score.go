package models

import "fmt"

// Score is a validation score on the 0-100 scale.
type Score float64

// NewScore validates the value range before wrapping it.
func NewScore(v float64) (Score, error) {
	if v < 0 || v > 100 {
		return 0, fmt.Errorf("score %.2f out of range [0, 100]", v)
	}
	return Score(v), nil
}

// ClampScore forces the value into the 0-100 range.
func ClampScore(v float64) Score {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return Score(v)
}

// Float64 unwraps the score.
func (s Score) Float64() float64 { return float64(s) }

// Rating is a moderator rating on the 0-5 scale.
type Rating float64

// NewRating validates the value range before wrapping it.
func NewRating(v float64) (Rating, error) {
	if v < 0 || v > 5 {
		return 0, fmt.Errorf("rating %.2f out of range [0, 5]", v)
	}
	return Rating(v), nil
}

// Float64 unwraps the rating.
func (r Rating) Float64() float64 { return float64(r) }
