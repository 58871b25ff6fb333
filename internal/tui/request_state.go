package tui

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/studiowebux/reqflow/internal/types"
	"go.uber.org/zap"
)

// RequestState is the state of the latest request for one recipe. It is one
// of LoadingState, ResponseState or ErrorState.
type RequestState interface {
	isRequestState()
}

// LoadingState means a request has been started and has not completed.
// RequestID identifies the attempt a completion must belong to.
type LoadingState struct {
	RequestID uuid.UUID
	StartTime time.Time
}

// ResponseState holds a completed request
type ResponseState struct {
	Record *types.RequestRecord
}

// ErrorState holds a request that failed before or during execution
type ErrorState struct {
	Err       error
	StartTime time.Time
	EndTime   time.Time
}

func (LoadingState) isRequestState()  {}
func (ResponseState) isRequestState() {}
func (ErrorState) isRequestState()    {}

// RequestStates tracks the latest request state per recipe. Only a Loading
// state can be replaced, and only by a completion carrying its request ID, so
// a result that arrives after the recipe was restarted or cleared is dropped.
type RequestStates struct {
	mu     sync.Mutex
	states map[types.RecipeID]RequestState
	logger *zap.Logger
	now    func() time.Time
}

// NewRequestStates creates an empty state map
func NewRequestStates(logger *zap.Logger) *RequestStates {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RequestStates{
		states: make(map[types.RecipeID]RequestState),
		logger: logger,
		now:    time.Now,
	}
}

// CanSend reports whether a new request may be started for recipeID
func (s *RequestStates) CanSend(recipeID types.RecipeID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, loading := s.states[recipeID].(LoadingState)
	return !loading
}

// StartRequest moves recipeID into Loading and returns the ID the completion
// must carry. It is rejected, and returns false, while the recipe is already
// Loading.
func (s *RequestStates) StartRequest(recipeID types.RecipeID) (uuid.UUID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, loading := s.states[recipeID].(LoadingState); loading {
		s.logger.Error("Request started while another is in flight",
			zap.String("recipe", string(recipeID)))
		return uuid.Nil, false
	}
	id := uuid.New()
	s.states[recipeID] = LoadingState{RequestID: id, StartTime: s.now()}
	return id, true
}

// FinishRequest stores a completed record. It is dropped unless the
// record's recipe is Loading with the record's ID.
func (s *RequestStates) FinishRequest(record *types.RequestRecord) bool {
	recipeID := recordRecipe(record)

	s.mu.Lock()
	defer s.mu.Unlock()

	if loading, ok := s.states[recipeID].(LoadingState); !ok || loading.RequestID != record.ID {
		s.logger.Error("Response received for a request that is not loading",
			zap.String("recipe", string(recipeID)),
			zap.Stringer("request_id", record.ID))
		return false
	}
	s.states[recipeID] = ResponseState{Record: record}
	return true
}

// FailRequest stores err for recipeID, keeping the start time of the
// Loading state it replaces. It is dropped unless the recipe is Loading with
// requestID.
func (s *RequestStates) FailRequest(recipeID types.RecipeID, requestID uuid.UUID, err error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	loading, ok := s.states[recipeID].(LoadingState)
	if !ok || loading.RequestID != requestID {
		s.logger.Error("Failure received for a request that is not loading",
			zap.String("recipe", string(recipeID)),
			zap.Stringer("request_id", requestID),
			zap.Error(err))
		return false
	}
	s.states[recipeID] = ErrorState{
		Err:       err,
		StartTime: loading.StartTime,
		EndTime:   s.now(),
	}
	return true
}

// StateFor returns the current state of recipeID, or nil if it has none
func (s *RequestStates) StateFor(recipeID types.RecipeID) RequestState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.states[recipeID]
}

// Duration is the elapsed time of a state. For Loading it grows until the
// request completes.
func (s *RequestStates) Duration(state RequestState) time.Duration {
	switch st := state.(type) {
	case LoadingState:
		return s.now().Sub(st.StartTime)
	case ResponseState:
		return st.Record.Duration()
	case ErrorState:
		return st.EndTime.Sub(st.StartTime)
	default:
		return 0
	}
}

// AnyLoading reports whether any recipe is Loading
func (s *RequestStates) AnyLoading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, state := range s.states {
		if _, loading := state.(LoadingState); loading {
			return true
		}
	}
	return false
}

// Clear drops every state
func (s *RequestStates) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states = make(map[types.RecipeID]RequestState)
}

func recordRecipe(record *types.RequestRecord) types.RecipeID {
	if record.Request == nil {
		return ""
	}
	return record.Request.RecipeID
}
