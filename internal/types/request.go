package types

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Request is a single rendered instance of a recipe. It is built on the
// caller's goroutine; its result slot is filled later by the goroutine that
// executes it.
type Request struct {
	ID       uuid.UUID
	RecipeID RecipeID
	Method   string
	URL      string
	Headers  http.Header
	// Text body only
	Body *string

	result ResultSlot
}

// NewRequest creates a request with an empty result slot
func NewRequest(recipeID RecipeID, method, url string, headers http.Header, body *string) *Request {
	if headers == nil {
		headers = make(http.Header)
	}
	return &Request{
		ID:       uuid.New(),
		RecipeID: recipeID,
		Method:   method,
		URL:      url,
		Headers:  headers,
		Body:     body,
		result:   ResultSlot{done: make(chan struct{})},
	}
}

// Result returns the request's result slot
func (r *Request) Result() *ResultSlot {
	return &r.result
}

// Done is closed once the result slot has been filled
func (r *Request) Done() <-chan struct{} {
	return r.result.Done()
}

// Record builds the record for this request. ok is false while the result
// slot is still empty.
func (r *Request) Record() (*RequestRecord, bool) {
	outcome, ok := r.result.Get()
	if !ok {
		return nil, false
	}
	return &RequestRecord{
		ID:        r.ID,
		Request:   r,
		Response:  outcome.Response,
		Err:       outcome.Err,
		StartTime: outcome.StartTime,
		EndTime:   outcome.EndTime,
	}, true
}

// Outcome is what the executing goroutine writes into a result slot
type Outcome struct {
	Response  *Response
	Err       error
	StartTime time.Time
	EndTime   time.Time
}

// ResultSlot is written exactly once and never cleared. Reads never block;
// Done can be used to wait for the write.
type ResultSlot struct {
	mu      sync.RWMutex
	filled  bool
	outcome Outcome
	done    chan struct{}
}

// Fill stores the outcome. It reports false, leaving the slot untouched, if
// the slot was already filled.
func (s *ResultSlot) Fill(outcome Outcome) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.filled {
		return false
	}
	s.outcome = outcome
	s.filled = true
	if s.done == nil {
		s.done = make(chan struct{})
	}
	close(s.done)
	return true
}

// Get returns the outcome, if the slot has been filled
func (s *ResultSlot) Get() (Outcome, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.outcome, s.filled
}

// Done is closed when the slot is filled
func (s *ResultSlot) Done() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done == nil {
		s.done = make(chan struct{})
	}
	return s.done
}

// Response is a fully buffered HTTP response
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       string
}

// RequestRecord is one stored attempt. Exactly one of Response and Err is set.
type RequestRecord struct {
	ID        uuid.UUID
	Request   *Request
	Response  *Response
	Err       error
	StartTime time.Time
	EndTime   time.Time
}

// Succeeded reports whether the attempt produced a response
func (r *RequestRecord) Succeeded() bool {
	return r.Err == nil && r.Response != nil
}

// Duration is the elapsed time of the attempt
func (r *RequestRecord) Duration() time.Duration {
	return r.EndTime.Sub(r.StartTime)
}
