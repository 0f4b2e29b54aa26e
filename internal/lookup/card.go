// Package lookup builds the single-stock card shown after a search.
package lookup

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// User-facing lookup messages.
const (
	// MsgPrompt answers a blank search.
	MsgPrompt = "Please enter a stock name."
	// MsgNotFound answers a search the service does not know.
	MsgNotFound = "No stock found"
	// MsgError replaces any network, status or parsing failure.
	MsgError = "Error fetching stock data."
)

// Quote is the search service response.
type Quote struct {
	Found     bool                `json:"found"`
	Name      string              `json:"name"`
	Price     decimal.NullDecimal `json:"price"`
	LastClose decimal.NullDecimal `json:"last_close"`
}

// DecodeQuote parses a search response. A found quote must carry its name and
// both prices.
func DecodeQuote(body []byte) (Quote, error) {
	var q Quote
	if err := json.Unmarshal(body, &q); err != nil {
		return Quote{}, fmt.Errorf("search response: %w", err)
	}
	if !q.Found {
		return q, nil
	}
	switch {
	case q.Name == "":
		return Quote{}, fmt.Errorf("search response: found stock without name")
	case !q.Price.Valid:
		return Quote{}, fmt.Errorf("search response: %s has no price", q.Name)
	case !q.LastClose.Valid:
		return Quote{}, fmt.Errorf("search response: %s has no last_close", q.Name)
	}
	return q, nil
}

// State classifies what a Card shows.
type State string

const (
	StatePrompt   State = "prompt"
	StateNotFound State = "not_found"
	StateFound    State = "found"
	StateError    State = "error"
)

// Tone is the visual treatment of the current price.
type Tone string

const (
	TonePositive Tone = "positive"
	ToneNegative Tone = "negative"
)

// Card is the content of the result region after a lookup.
type Card struct {
	State     State  `json:"state"`
	Message   string `json:"message,omitempty"`
	Name      string `json:"name,omitempty"`
	Price     string `json:"price,omitempty"`
	LastClose string `json:"last_close,omitempty"`
	Tone      Tone   `json:"tone,omitempty"`
}

// Prompt is the card for a blank search.
func Prompt() Card { return Card{State: StatePrompt, Message: MsgPrompt} }

// ErrorCard is the card for a failed search.
func ErrorCard() Card { return Card{State: StateError, Message: MsgError} }

// BuildCard renders a quote. The price is positive when it is at or above the
// last close.
func BuildCard(q Quote, currency string) Card {
	if !q.Found {
		return Card{State: StateNotFound, Message: MsgNotFound}
	}
	tone := ToneNegative
	if q.Price.Decimal.GreaterThanOrEqual(q.LastClose.Decimal) {
		tone = TonePositive
	}
	return Card{
		State:     StateFound,
		Name:      q.Name,
		Price:     currency + q.Price.Decimal.String(),
		LastClose: currency + q.LastClose.Decimal.String(),
		Tone:      tone,
	}
}
