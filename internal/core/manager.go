package core

import (
	"context"
	"errors"
	"hash/fnv"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/contriboost/chat-relay/internal/store"
)

const tracerName = "github.com/contriboost/chat-relay/internal/core"

// Manager runs the message lifecycle: validate, authorize, persist, broadcast.
// Both the streaming channel and the request/response API go through it.
// Edits and deletes of the same message are serialized from lookup to
// broadcast, so a room never sees "edited" after "deleted" for one id.
type Manager struct {
	store     store.MessageStore
	hub       *Hub
	policy    Policy
	now       func() time.Time
	ioTimeout time.Duration
	log       *zerolog.Logger
	tracer    trace.Tracer

	locks [64]sync.Mutex
}

// ManagerOption customizes a Manager.
type ManagerOption func(*Manager)

// WithClock sets the clock used for edit window checks.
func WithClock(now func() time.Time) ManagerOption {
	return func(m *Manager) { m.now = now }
}

// WithPolicy replaces the default authorization policy.
func WithPolicy(p Policy) ManagerOption {
	return func(m *Manager) { m.policy = p }
}

// WithIOTimeout bounds every store call.
func WithIOTimeout(d time.Duration) ManagerOption {
	return func(m *Manager) { m.ioTimeout = d }
}

// WithLogger sets the logger for swallowed streaming errors.
func WithLogger(logger *zerolog.Logger) ManagerOption {
	return func(m *Manager) { m.log = logger }
}

// WithTracerProvider uses a specific provider instead of the global one.
func WithTracerProvider(tp trace.TracerProvider) ManagerOption {
	return func(m *Manager) { m.tracer = tp.Tracer(tracerName) }
}

// NewManager wires the lifecycle manager to its store and hub.
func NewManager(st store.MessageStore, hub *Hub, opts ...ManagerOption) *Manager {
	nop := zerolog.Nop()
	m := &Manager{
		store:     st,
		hub:       hub,
		now:       time.Now,
		ioTimeout: 5 * time.Second,
		log:       &nop,
		tracer:    otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Hub exposes the hub the manager broadcasts to.
func (m *Manager) Hub() *Hub {
	return m.hub
}

// Send persists a new message and broadcasts it to the room.
func (m *Manager) Send(ctx context.Context, room, actor, content string) (msg Message, err error) {
	ctx, span := m.startSpan(ctx, "send", room, actor)
	defer func() { endSpan(span, err) }()

	if room == "" || actor == "" {
		return Message{}, ErrInvalidRequest
	}
	if strings.TrimSpace(content) == "" {
		return Message{}, ErrInvalidRequest
	}

	sctx, cancel := m.storeContext(ctx)
	rec, err := m.store.CreateMessage(sctx, room, actor, content)
	cancel()
	if err != nil {
		return Message{}, &StorageError{Op: "create", Err: err}
	}

	msg = messageFromRecord(rec)
	span.SetAttributes(attribute.Int64("message.id", msg.ID))
	m.hub.Broadcast(room, sentEvent(msg))
	return msg, nil
}

// Edit replaces the content of the actor's own message inside the edit window.
// The broadcast carries the original creation timestamp.
func (m *Manager) Edit(ctx context.Context, room, actor string, id int64, content string) (msg Message, err error) {
	ctx, span := m.startSpan(ctx, "edit", room, actor)
	span.SetAttributes(attribute.Int64("message.id", id))
	defer func() { endSpan(span, err) }()

	if strings.TrimSpace(content) == "" {
		return Message{}, ErrInvalidRequest
	}

	unlock := m.lockMessage(room, id)
	defer unlock()

	current, err := m.get(ctx, room, id)
	if err != nil {
		return Message{}, err
	}
	if err := m.policy.CanEdit(current, actor, m.now()).Err(); err != nil {
		return Message{}, err
	}

	sctx, cancel := m.storeContext(ctx)
	rec, err := m.store.UpdateMessageContent(sctx, room, id, content)
	cancel()
	if err != nil {
		return Message{}, m.storeErr("update", err)
	}

	msg = messageFromRecord(rec)
	msg.Timestamp = current.Timestamp
	m.hub.Broadcast(room, editedEvent(msg))
	return msg, nil
}

// Delete removes the actor's own message. Deletion has no time window.
func (m *Manager) Delete(ctx context.Context, room, actor string, id int64) (err error) {
	ctx, span := m.startSpan(ctx, "delete", room, actor)
	span.SetAttributes(attribute.Int64("message.id", id))
	defer func() { endSpan(span, err) }()

	unlock := m.lockMessage(room, id)
	defer unlock()

	current, err := m.get(ctx, room, id)
	if err != nil {
		return err
	}
	if err := m.policy.CanDelete(current, actor, m.now()).Err(); err != nil {
		return err
	}

	sctx, cancel := m.storeContext(ctx)
	err = m.store.DeleteMessage(sctx, room, id)
	cancel()
	if err != nil {
		return m.storeErr("delete", err)
	}

	m.hub.Broadcast(room, deletedEvent(room, id))
	return nil
}

// History returns every surviving message of the room, oldest first.
func (m *Manager) History(ctx context.Context, room string) (msgs []Message, err error) {
	ctx, span := m.tracer.Start(ctx, "relay.history", trace.WithAttributes(attribute.String("relay.room", room)))
	defer func() { endSpan(span, err) }()

	sctx, cancel := m.storeContext(ctx)
	recs, err := m.store.ListMessages(sctx, room)
	cancel()
	if err != nil {
		return nil, &StorageError{Op: "list", Err: err}
	}

	msgs = make([]Message, 0, len(recs))
	for _, rec := range recs {
		msgs = append(msgs, messageFromRecord(rec))
	}
	return msgs, nil
}

// Handle runs an action received on the streaming channel.
// Failures never reach the client: they are logged and the action is dropped.
func (m *Manager) Handle(ctx context.Context, client *Client, action Action) {
	var err error
	switch action.Kind {
	case ActionSend:
		_, err = m.Send(ctx, client.Room, client.Identity, action.Content)
	case ActionEdit:
		_, err = m.Edit(ctx, client.Room, client.Identity, action.MessageID, action.Content)
	case ActionDelete:
		err = m.Delete(ctx, client.Room, client.Identity, action.MessageID)
	default:
		m.log.Debug().Str("room", client.Room).Str("client_id", client.ID).Msg("ignoring unknown action")
		return
	}
	if err == nil {
		return
	}

	ev := m.log.Debug()
	if errors.Is(err, ErrStorage) {
		ev = m.log.Warn()
	}
	ev.Err(err).
		Str("room", client.Room).
		Str("client_id", client.ID).
		Str("identity", client.Identity).
		Str("action", action.Kind.String()).
		Int64("message_id", action.MessageID).
		Msg("action dropped")
}

func (m *Manager) lockMessage(room string, id int64) func() {
	h := fnv.New32a()
	h.Write([]byte(room))
	h.Write([]byte(strconv.FormatInt(id, 10)))
	mu := &m.locks[h.Sum32()%uint32(len(m.locks))]
	mu.Lock()
	return mu.Unlock
}

func (m *Manager) get(ctx context.Context, room string, id int64) (Message, error) {
	sctx, cancel := m.storeContext(ctx)
	defer cancel()

	rec, err := m.store.GetMessage(sctx, room, id)
	if err != nil {
		return Message{}, m.storeErr("get", err)
	}
	return messageFromRecord(rec), nil
}

func (m *Manager) storeErr(op string, err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return ErrMessageNotFound
	}
	return &StorageError{Op: op, Err: err}
}

func (m *Manager) storeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if m.ioTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, m.ioTimeout)
}

func (m *Manager) startSpan(ctx context.Context, op, room, actor string) (context.Context, trace.Span) {
	return m.tracer.Start(ctx, "relay."+op, trace.WithAttributes(
		attribute.String("relay.room", room),
		attribute.String("relay.identity", actor),
	))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
