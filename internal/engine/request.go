package engine

import (
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/manna-labs/manna/internal/answer"
	"github.com/manna-labs/manna/internal/provider"
	"github.com/manna-labs/manna/internal/retrieval"
)

// MaxQueryLength is the maximum query length in runes.
const MaxQueryLength = 1000

// Validation errors. Handlers map these to 400 responses.
var (
	ErrEmptyQuery   = errors.New("query must not be empty")
	ErrQueryTooLong = fmt.Errorf("query exceeds %d characters", MaxQueryLength)
	ErrInvalidDate  = errors.New("date filter must be an ISO date (YYYY-MM-DD)")
)

// Request is a question put to the engine.
type Request struct {
	// Query is the question text. Required, at most MaxQueryLength runes.
	Query string `json:"query"`

	// Mode selects the answer framing; empty means general.
	Mode string `json:"mode,omitempty"`

	// Source restricts retrieval to one source kind
	// (devotional, quarterly, bible).
	Source string `json:"source,omitempty"`

	// QuarterlyID restricts retrieval to one quarterly. Only meaningful
	// for quarterly content; zero means no restriction.
	QuarterlyID int `json:"quarterlyId,omitempty"`

	// Date restricts retrieval to entries stamped with this ISO date.
	// Only meaningful for devotional content.
	Date string `json:"date,omitempty"`

	// History is prior conversation carried into the prompt.
	History []provider.Message `json:"history,omitempty"`

	// Stream asks for an SSE response on transports that support both
	// shapes. The engine itself ignores it; Ask and AskStream are
	// chosen by the caller.
	Stream bool `json:"stream,omitempty"`
}

// validate checks the request and resolves its mode.
func (r Request) validate() (answer.Mode, error) {
	if r.Query == "" {
		return "", ErrEmptyQuery
	}
	if utf8.RuneCountInString(r.Query) > MaxQueryLength {
		return "", ErrQueryTooLong
	}

	mode, err := answer.ParseMode(r.Mode)
	if err != nil {
		return "", err
	}

	if r.Date != "" {
		if _, err := time.Parse("2006-01-02", r.Date); err != nil {
			return "", fmt.Errorf("%w: %q", ErrInvalidDate, r.Date)
		}
	}
	return mode, nil
}

// filter builds the metadata filter from the request's restriction
// fields. An empty filter means search everything.
func (r Request) filter() retrieval.Filter {
	filter := retrieval.Filter{}
	if r.Source != "" {
		filter["source"] = r.Source
	}
	if r.QuarterlyID > 0 {
		filter["quarterlyId"] = r.QuarterlyID
	}
	if r.Date != "" {
		filter["date"] = r.Date
	}
	return filter
}
