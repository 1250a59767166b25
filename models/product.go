package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// NoRating is the sentinel a card carries when it has no usable star rating.
// It is distinct from a rating of zero.
const NoRating = "No rating"

// DefaultTitle is used when a card has no title element or the title is blank.
const DefaultTitle = "Title not available"

// Product is one search result card.
type Product struct {
	// Title is the product name shown on the card.
	Title string `json:"title"`

	// ImageURL is the card thumbnail. Nil when the card has no image.
	ImageURL *string `json:"imageUrl"`

	// Rating is the average star rating, or NoRating.
	Rating Rating `json:"rating"`

	// ReviewCount is the number of reviews, 0 when unknown.
	ReviewCount int `json:"reviewCount"`
}

// Rating is a star rating that may be absent. It marshals to a JSON number
// when valid and to the NoRating string otherwise.
type Rating struct {
	Value float64
	Valid bool
}

// RatingOf returns a valid rating.
func RatingOf(v float64) Rating {
	return Rating{Value: v, Valid: true}
}

// String returns the numeric value or NoRating.
func (r Rating) String() string {
	if !r.Valid {
		return NoRating
	}
	return strconv.FormatFloat(r.Value, 'f', -1, 64)
}

// MarshalJSON implements json.Marshaler.
func (r Rating) MarshalJSON() ([]byte, error) {
	if !r.Valid {
		return json.Marshal(NoRating)
	}
	return []byte(strconv.FormatFloat(r.Value, 'f', -1, 64)), nil
}

// UnmarshalJSON accepts a number or the NoRating string.
func (r *Rating) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s != NoRating {
			return fmt.Errorf("rating: unexpected string %q", s)
		}
		*r = Rating{}
		return nil
	}
	if bytes.Equal(data, []byte("null")) {
		*r = Rating{}
		return nil
	}

	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("rating: %w", err)
	}
	*r = RatingOf(v)
	return nil
}
