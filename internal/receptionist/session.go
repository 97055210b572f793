package receptionist

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/wolfman30/geecurly-receptionist/internal/bookings"
	"github.com/wolfman30/geecurly-receptionist/internal/kvstore"
	"github.com/wolfman30/geecurly-receptionist/internal/observability/metrics"
	"github.com/wolfman30/geecurly-receptionist/internal/transcript"
	"github.com/wolfman30/geecurly-receptionist/pkg/logging"
)

var (
	// ErrTurnInFlight is returned when input arrives while a reply is still pending.
	ErrTurnInFlight = errors.New("receptionist: a reply is already pending")
	// ErrTurnDiscarded is returned by a turn whose session was reset before it finished.
	ErrTurnDiscarded = errors.New("receptionist: turn discarded by reset")
	// ErrSessionNotFound is returned for unknown or expired session ids.
	ErrSessionNotFound = errors.New("receptionist: session not found")
	// ErrEmptyInput is returned for blank messages.
	ErrEmptyInput = errors.New("receptionist: empty input")
)

const (
	SenderUser = "user"
	SenderBot  = "bot"
)

// Message is one entry of the chat as shown to the visitor.
type Message struct {
	ID           string            `json:"id"`
	Sender       string            `json:"sender"`
	Text         string            `json:"text"`
	Timestamp    time.Time         `json:"timestamp"`
	Type         ResponseType      `json:"type,omitempty"`
	QuickActions []string          `json:"quick_actions,omitempty"`
	Confidence   float64           `json:"confidence,omitempty"`
	Booking      *bookings.Request `json:"booking,omitempty"`
}

// SessionOptions are the per-session timings.
type SessionOptions struct {
	TypingDelay  time.Duration
	WelcomeDelay time.Duration
}

// Session is one visitor's chat. Only one turn runs at a time; Reset cancels it and
// holds the turn slot until the new welcome is applied.
type Session struct {
	id         string
	home       string
	flow       *Flow
	memory     *MemoryStore
	transcript transcript.Store
	logger     *logging.Logger
	metrics    *metrics.ChatMetrics
	opts       SessionOptions

	turn *semaphore.Weighted

	mu         sync.Mutex
	gen        uint64
	held       bool
	resetting  int
	cancelTurn context.CancelFunc
	state      State
	mem        CustomerMemory
	messages   []Message
	lastActive time.Time
}

// NewSession creates a session opened on the home branch. kv holds only this session's memory snapshot.
func NewSession(id, home string, flow *Flow, kv kvstore.Store, transcripts transcript.Store, opts SessionOptions, logger *logging.Logger, m *metrics.ChatMetrics) *Session {
	if flow == nil {
		panic("receptionist: flow required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if id == "" {
		id = uuid.NewString()
	}
	return &Session{
		id:         id,
		home:       home,
		flow:       flow,
		memory:     NewMemoryStore(kv),
		transcript: transcripts,
		logger:     logger.WithSession(id),
		metrics:    m,
		opts:       opts,
		turn:       semaphore.NewWeighted(1),
		state:      NewState(home),
		mem:        flow.NewMemory(home),
		lastActive: time.Now(),
	}
}

func (s *Session) ID() string { return s.id }

// State returns the current conversation state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Messages returns a copy of the chat so far.
func (s *Session) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Pending reports whether a reply is being prepared.
func (s *Session) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.held || s.resetting > 0
}

// LastActive is the time of the last applied turn.
func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

// Start produces the welcome message after the welcome delay.
func (s *Session) Start(ctx context.Context) (Message, error) {
	ctx, err := s.begin(ctx)
	if err != nil {
		return Message{}, err
	}
	defer s.end()
	return s.welcome(ctx)
}

// Send handles one visitor message. Quick actions are sent as their text.
func (s *Session) Send(ctx context.Context, text string) (Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Message{}, ErrEmptyInput
	}
	ctx, err := s.begin(ctx)
	if err != nil {
		return Message{}, err
	}
	defer s.end()

	gen, st, mem := s.snapshot()
	s.record(ctx, Message{ID: uuid.NewString(), Sender: SenderUser, Text: text, Timestamp: time.Now().UTC()}, st.Step)

	if err := s.wait(ctx, gen, s.opts.TypingDelay); err != nil {
		return Message{}, err
	}
	started := time.Now()
	out := s.flow.Transition(ctx, st, mem, text)
	s.metrics.ObserveTurnLatency(string(st.Step), time.Since(started).Seconds())
	s.metrics.ObserveTurn(string(st.Step), string(out.Intent))
	return s.apply(ctx, gen, st, out)
}

// Back steps the flow back one position.
func (s *Session) Back(ctx context.Context) (Message, error) {
	ctx, err := s.begin(ctx)
	if err != nil {
		return Message{}, err
	}
	defer s.end()

	gen, st, mem := s.snapshot()
	if err := s.wait(ctx, gen, s.opts.TypingDelay); err != nil {
		return Message{}, err
	}
	return s.apply(ctx, gen, st, s.flow.Back(ctx, st, mem))
}

// Reset discards the conversation, any in-flight turn and the memory snapshot, then welcomes again.
// Input sent before the new welcome is applied is rejected with ErrTurnInFlight.
func (s *Session) Reset(ctx context.Context) (Message, error) {
	ctx = WithSessionID(ctx, s.id)

	s.mu.Lock()
	s.gen++
	s.resetting++
	if s.cancelTurn != nil {
		s.cancelTurn()
	}
	from := s.state.Step
	s.state = NewState(s.home)
	s.mem = s.flow.NewMemory(s.home)
	s.messages = nil
	s.lastActive = time.Now()
	if err := s.memory.Clear(ctx); err != nil {
		s.logger.Warn("memory clear failed", "error", err)
	}
	if s.transcript != nil {
		if err := s.transcript.Delete(ctx, s.id); err != nil {
			s.logger.Warn("transcript delete failed", "error", err)
		}
	}
	s.mu.Unlock()

	s.metrics.ObserveTransition(string(from), string(StepGreeting))
	s.logger.Info("session reset", "step_from", from)

	defer func() {
		s.mu.Lock()
		s.resetting--
		s.mu.Unlock()
	}()

	// The cancelled turn releases the slot once it notices.
	if err := s.turn.Acquire(ctx, 1); err != nil {
		return Message{}, err
	}
	ctx = s.own(ctx)
	defer s.end()
	return s.welcome(ctx)
}

// begin takes the turn slot or fails with ErrTurnInFlight. The returned context is cancelled by Reset.
func (s *Session) begin(ctx context.Context) (context.Context, error) {
	if !s.turn.TryAcquire(1) {
		return nil, ErrTurnInFlight
	}
	s.mu.Lock()
	if s.resetting > 0 {
		s.mu.Unlock()
		s.turn.Release(1)
		return nil, ErrTurnInFlight
	}
	s.mu.Unlock()
	return s.own(WithSessionID(ctx, s.id)), nil
}

// own registers a cancel func for the turn holding the slot.
func (s *Session) own(ctx context.Context) context.Context {
	ctx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.held = true
	s.cancelTurn = cancel
	s.mu.Unlock()
	return ctx
}

// end releases the turn slot.
func (s *Session) end() {
	s.mu.Lock()
	cancel := s.cancelTurn
	s.cancelTurn = nil
	s.held = false
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	s.turn.Release(1)
}

// wait sleeps d, then reports ErrTurnDiscarded if a reset happened meanwhile.
func (s *Session) wait(ctx context.Context, gen uint64, d time.Duration) error {
	err := sleep(ctx, d)
	s.mu.Lock()
	stale := s.gen != gen
	s.mu.Unlock()
	if stale {
		s.logger.Info("turn discarded after reset")
		return ErrTurnDiscarded
	}
	return err
}

func (s *Session) welcome(ctx context.Context) (Message, error) {
	gen, st, mem := s.snapshot()
	if err := s.wait(ctx, gen, s.opts.WelcomeDelay); err != nil {
		return Message{}, err
	}
	return s.apply(ctx, gen, st, s.flow.Welcome(ctx, st, mem))
}

func (s *Session) snapshot() (uint64, State, CustomerMemory) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen, s.state, s.mem
}

// apply commits a turn unless a reset happened since gen was read.
func (s *Session) apply(ctx context.Context, gen uint64, from State, out Outcome) (Message, error) {
	msg := Message{
		ID:           uuid.NewString(),
		Sender:       SenderBot,
		Text:         out.Response.Text,
		Timestamp:    time.Now().UTC(),
		Type:         out.Response.Type,
		QuickActions: out.Response.QuickActions,
		Confidence:   out.Response.Confidence,
		Booking:      out.Response.Booking,
	}

	s.mu.Lock()
	if s.gen != gen {
		s.mu.Unlock()
		s.logger.Info("turn discarded after reset", "step", from.Step)
		return Message{}, ErrTurnDiscarded
	}
	s.state = out.State
	s.mem = out.Memory
	s.lastActive = time.Now()
	switch {
	case out.ClearMemory:
		if err := s.memory.Clear(ctx); err != nil {
			s.logger.Warn("memory clear failed", "error", err)
		}
	case out.MemoryChanged:
		if err := s.memory.Save(ctx, out.Memory); err != nil {
			s.logger.Warn("memory save failed", "error", err)
		}
	}
	s.mu.Unlock()

	s.record(ctx, msg, out.State.Step)
	s.metrics.ObserveTransition(string(from.Step), string(out.State.Step))
	s.logger.Info("turn handled",
		"step_from", from.Step,
		"step", out.State.Step,
		"intent", out.Intent,
		"response_type", out.Response.Type,
	)
	return msg, nil
}

func (s *Session) record(ctx context.Context, msg Message, step Step) {
	s.mu.Lock()
	s.messages = append(s.messages, msg)
	s.mu.Unlock()

	if s.transcript == nil {
		return
	}
	entry := transcript.Entry{
		ID:         msg.ID,
		Sender:     msg.Sender,
		Text:       msg.Text,
		Type:       string(msg.Type),
		Step:       string(step),
		Confidence: msg.Confidence,
		Timestamp:  msg.Timestamp,
	}
	if err := s.transcript.Append(ctx, s.id, entry); err != nil {
		s.logger.Warn("transcript append failed", "error", err)
	}
}

// sleep waits d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
