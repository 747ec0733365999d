package chatx

import (
	"context"
	"errors"
	"maps"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lumivox/chatkit/pkg/state"
)

const (
	StatusIdle      Status = "idle"
	StatusLoading   Status = "loading"
	StatusStreaming Status = "streaming"
	StatusError     Status = "error"
	StatusCancelled Status = "cancelled"
)

// Status is the lifecycle state of a chat session. Exactly one value holds at
// any instant.
type Status string

func (s Status) String() string {
	return string(s)
}

// ChatState is a coherent snapshot of a chat session: the full message list,
// the current status and the last completion error (nil unless status is
// error). It is recomputed on every mutation, never partially stale.
type ChatState struct {
	Messages []*Message
	Status   Status
	Err      error
}

// Controller manages one chat session: it owns the message history, drives
// one completion per user message, and exposes hot replay-latest projections
// of its state. All methods are safe for concurrent use.
//
// A Controller drives completions through exactly one capability, chosen at
// construction time: a rich LanguageModel (NewFromModel, routed through
// StreamText) or a minimal chunk Adapter (NewFromAdapter). Both paths follow
// the same state machine.
type Controller struct {
	model   LanguageModel
	adapter Adapter

	now         func() time.Time
	newID       func() string
	system      string
	temperature *float32
	maxTokens   *int

	mu          sync.Mutex
	messages    []*Message
	status      Status
	err         error
	lastRequest []*Message
	gen         uint64
	activeToken *CancelToken
	activeStrm  interface{ CloseWithError(error) error }
	destroyed   bool

	stateVar  *state.Var[ChatState]
	msgsVar   *state.Var[[]*Message]
	statusVar *state.Var[Status]
	errVar    *state.Var[error]
}

// Option configures a Controller at construction time.
type Option func(*Controller)

// WithNow overrides the timestamp source used for new messages.
func WithNow(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// WithIDGenerator overrides the message ID generator.
func WithIDGenerator(fn func() string) Option {
	return func(c *Controller) { c.newID = fn }
}

// WithInitialMessages seeds the session history. The messages are cloned.
func WithInitialMessages(msgs []*Message) Option {
	return func(c *Controller) { c.messages = cloneMessages(msgs) }
}

// WithSystem sets the system prompt forwarded on model-path completions.
func WithSystem(system string) Option {
	return func(c *Controller) { c.system = system }
}

// WithTemperature sets the sampling temperature forwarded on model-path
// completions.
func WithTemperature(temp float32) Option {
	return func(c *Controller) { c.temperature = &temp }
}

// WithMaxTokens caps the completion length on model-path completions.
func WithMaxTokens(n int) Option {
	return func(c *Controller) { c.maxTokens = &n }
}

// NewFromModel creates a Controller driving completions through a rich
// LanguageModel capability.
func NewFromModel(model LanguageModel, opts ...Option) *Controller {
	c := newController(opts)
	c.model = model
	return c
}

// NewFromAdapter creates a Controller driving completions through the
// low-level chunk Adapter capability.
func NewFromAdapter(adapter Adapter, opts ...Option) *Controller {
	c := newController(opts)
	c.adapter = adapter
	return c
}

func newController(opts []Option) *Controller {
	c := &Controller{
		now:    time.Now,
		newID:  uuid.NewString,
		status: StatusIdle,
	}
	for _, opt := range opts {
		opt(c)
	}
	snap := c.snapshotLocked()
	c.stateVar = state.New(snap)
	c.msgsVar = state.New(snap.Messages)
	c.statusVar = state.NewDistinct(snap.Status)
	c.errVar = state.NewDistinctFunc[error](nil, func(a, b error) bool { return a == b })
	return c
}

// Send appends a user message plus an empty assistant placeholder and starts
// a completion over the history up to and including the user message. Blank
// content (after trimming) is a silent no-op. Any in-flight completion is
// torn down first. The request message list becomes the retry baseline.
func (c *Controller) Send(content string, meta map[string]any) {
	text := strings.TrimSpace(content)
	if text == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.destroyed {
		return
	}
	c.teardownLocked()

	user := &Message{
		ID:        c.newID(),
		Role:      RoleUser,
		Content:   text,
		CreatedAt: c.now(),
	}
	if len(meta) > 0 {
		user.Meta = maps.Clone(meta)
	}
	placeholder := &Message{
		ID:        c.newID(),
		Role:      RoleAssistant,
		CreatedAt: c.now(),
	}
	c.messages = append(c.messages, user, placeholder)
	c.lastRequest = cloneMessages(c.messages[:len(c.messages)-1])
	c.status = StatusLoading
	c.err = nil
	c.publishLocked()
	c.startLocked()
}

// RetryLast re-issues the most recent completion request against a fresh
// assistant placeholder. The retained baseline message list is replayed
// verbatim; the user message is not re-appended. A no-op if no completion was
// ever started.
func (c *Controller) RetryLast() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.destroyed || c.lastRequest == nil {
		return
	}
	c.teardownLocked()

	placeholder := &Message{
		ID:        c.newID(),
		Role:      RoleAssistant,
		CreatedAt: c.now(),
	}
	c.messages = append(c.messages, placeholder)
	c.status = StatusLoading
	c.err = nil
	c.publishLocked()
	c.startLocked()
}

// Cancel aborts the active completion, if any, and transitions the session to
// cancelled. The error field is left untouched. Safe to call when idle;
// repeated calls are no-ops.
func (c *Controller) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.destroyed {
		return
	}
	c.teardownLocked()
	if c.status != StatusCancelled {
		c.status = StatusCancelled
		c.publishLocked()
	}
}

// Destroy tears down any active completion and completes every exposed
// projection. No further emissions are possible afterwards. Idempotent.
func (c *Controller) Destroy() {
	c.mu.Lock()
	if c.destroyed {
		c.mu.Unlock()
		return
	}
	c.teardownLocked()
	c.destroyed = true
	c.mu.Unlock()

	c.stateVar.Close()
	c.msgsVar.Close()
	c.statusVar.Close()
	c.errVar.Close()
}

// State returns the current session snapshot with no lag relative to the
// projections.
func (c *Controller) State() ChatState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Messages is a hot stream of the full message list, emitted on every
// mutation. A new subscriber immediately receives the current list.
func (c *Controller) Messages() Stream[[]*Message] {
	return watchStream[[]*Message]{c.msgsVar.Watch()}
}

// Status is a hot stream of the session status with duplicate emissions
// suppressed. A new subscriber immediately receives the current status.
func (c *Controller) Status() Stream[Status] {
	return watchStream[Status]{c.statusVar.Watch()}
}

// Err is a hot stream of the current completion error (nil when absent) with
// duplicate emissions suppressed.
func (c *Controller) Err() Stream[error] {
	return watchStream[error]{c.errVar.Watch()}
}

// States is a hot stream of the combined ChatState, emitted on every
// mutation. A new subscriber immediately receives the current snapshot.
func (c *Controller) States() Stream[ChatState] {
	return watchStream[ChatState]{c.stateVar.Watch()}
}

func (c *Controller) snapshotLocked() ChatState {
	return ChatState{
		Messages: cloneMessages(c.messages),
		Status:   c.status,
		Err:      c.err,
	}
}

func (c *Controller) publishLocked() {
	snap := c.snapshotLocked()
	c.stateVar.Set(snap)
	c.msgsVar.Set(snap.Messages)
	c.statusVar.Set(snap.Status)
	c.errVar.Set(snap.Err)
}

// teardownLocked cancels and unsubscribes the active completion, if any.
// Cancellation is propagated both ways: the token is signalled for
// cancellation-aware adapters, and the stream subscription is closed directly
// for adapters that ignore the token. Bumping gen makes every callback from
// the torn-down completion stale.
func (c *Controller) teardownLocked() {
	c.gen++
	if c.activeToken != nil {
		c.activeToken.Abort()
		c.activeToken = nil
	}
	if c.activeStrm != nil {
		c.activeStrm.CloseWithError(ErrAborted)
		c.activeStrm = nil
	}
}

func (c *Controller) startLocked() {
	token := NewCancelToken()
	c.activeToken = token
	gen := c.gen
	msgs := cloneMessages(c.lastRequest)
	if c.adapter != nil {
		go c.runAdapter(gen, token, msgs)
	} else {
		go c.runModel(gen, token, msgs)
	}
}

// register records the subscription for teardown, unless the completion it
// belongs to was already switched out.
func (c *Controller) register(gen uint64, strm interface{ CloseWithError(error) error }) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen != gen || c.destroyed {
		strm.CloseWithError(ErrAborted)
		return false
	}
	c.activeStrm = strm
	return true
}

func (c *Controller) runModel(gen uint64, token *CancelToken, msgs []*Message) {
	deltas := StreamText(context.Background(), StreamTextRequest{
		Model: c.model,
		Request: Request{
			Messages:    msgs,
			System:      c.system,
			Temperature: c.temperature,
			MaxTokens:   c.maxTokens,
			Token:       token,
		},
	}).TextDeltas()
	if !c.register(gen, deltas) {
		return
	}
	for {
		delta, err := deltas.Next()
		if err != nil {
			c.settle(gen, err)
			return
		}
		c.appendDelta(gen, delta)
	}
}

func (c *Controller) runAdapter(gen uint64, token *CancelToken, msgs []*Message) {
	strm, err := c.adapter.Complete(context.Background(), &AdapterRequest{
		Messages: msgs,
		Token:    token,
	})
	if err != nil {
		c.settle(gen, err)
		return
	}
	if !c.register(gen, strm) {
		return
	}
	for {
		chunk, err := strm.Next()
		if err != nil {
			c.settle(gen, err)
			return
		}
		c.appendDelta(gen, chunk.Content)
		if chunk.Done {
			// The done flag finalizes the completion without waiting for the
			// stream to end.
			c.settle(gen, ErrDone)
			return
		}
	}
}

// appendDelta appends a fragment verbatim to the current assistant message.
// The first non-empty fragment moves the session to streaming.
func (c *Controller) appendDelta(gen uint64, text string) {
	if text == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen != gen || c.destroyed {
		return
	}
	c.messages[len(c.messages)-1].Content += text
	c.status = StatusStreaming
	c.publishLocked()
}

// settle applies the terminal transition for one completion: idle on graceful
// completion, error on failure. Abort errors are swallowed; Cancel (or the
// switch to a new request) already applied its own transition.
func (c *Controller) settle(gen uint64, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen != gen || c.destroyed {
		return
	}
	c.teardownLocked()
	switch {
	case errors.Is(err, ErrDone):
		c.status = StatusIdle
	case IsAbort(err):
		return
	default:
		c.status = StatusError
		c.err = err
	}
	c.publishLocked()
}

type watchStream[T any] struct {
	w *state.Watcher[T]
}

func (ws watchStream[T]) Next() (T, error) {
	v, err := ws.w.Next()
	if err != nil {
		var zero T
		return zero, ErrDone
	}
	return v, nil
}

func (ws watchStream[T]) Close() error {
	return ws.w.Close()
}

func (ws watchStream[T]) CloseWithError(error) error {
	return ws.w.Close()
}
