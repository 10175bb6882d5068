package midi

import (
	"context"
	"fmt"
	"sync"
	"time"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	"go.uber.org/zap"

	"github.com/PixPMusic/nkonfig/internal/protocol"
	"github.com/PixPMusic/nkonfig/internal/trace"
)

// Sender writes one complete raw MIDI message.
type Sender func(msg []byte) error

// Recorder receives a copy of every message passing through a Link.
type Recorder interface {
	Record(dir trace.Direction, kind string, data []byte) error
}

// Link moves messages between a session and the device: queued requests
// go out through the Sender, incoming messages are handed to the session.
type Link struct {
	session *protocol.Session
	send    Sender
	log     *zap.Logger
	rec     Recorder

	sendMu  sync.Mutex
	mu      sync.Mutex
	waiters map[*waiter]struct{}
}

type result struct {
	ev  protocol.Event
	err error
}

type waiter struct {
	match func(protocol.Event) bool
	ch    chan result
}

// LinkOption configures a Link.
type LinkOption func(*Link)

// WithLogger sets the link logger.
func WithLogger(l *zap.Logger) LinkOption {
	return func(k *Link) {
		if l != nil {
			k.log = l
		}
	}
}

// WithRecorder captures all traffic to r.
func WithRecorder(r Recorder) LinkOption {
	return func(k *Link) { k.rec = r }
}

// NewLink connects s to the device through send.
func NewLink(s *protocol.Session, send Sender, opts ...LinkOption) *Link {
	l := &Link{
		session: s,
		send:    send,
		log:     zap.NewNop(),
		waiters: make(map[*waiter]struct{}),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Listen delivers everything arriving on in to the session until the
// returned stop function is called.
func (l *Link) Listen(in drivers.In) (func(), error) {
	stop, err := midi.ListenTo(in, func(msg midi.Message, _ int32) {
		l.Deliver(msg)
	}, midi.UseSysEx(), midi.SysExBufferSize(4096))
	if err != nil {
		return nil, fmt.Errorf("failed to start listening: %w", err)
	}
	return stop, nil
}

// Deliver hands one incoming message to the session and wakes up matching
// Await calls.
func (l *Link) Deliver(raw []byte) {
	raw = append([]byte(nil), raw...)
	ev, err := l.session.HandleMessage(raw)
	l.record(trace.DirectionIn, ev.Kind.String(), raw)
	if err != nil {
		l.log.Warn("failed to apply message", zap.Stringer("kind", ev.Kind), zap.Error(err))
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	for w := range l.waiters {
		if w.match(ev) {
			select {
			case w.ch <- result{ev, err}:
			default:
			}
		}
	}
}

// Flush sends the pending message, if any.
func (l *Link) Flush() (bool, error) {
	msg, ok := l.session.Outbox().Take()
	if !ok {
		return false, nil
	}
	return true, l.transmit(msg)
}

func (l *Link) transmit(msg []byte) error {
	l.sendMu.Lock()
	defer l.sendMu.Unlock()

	l.record(trace.DirectionOut, "", msg)
	if err := l.send(msg); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	l.log.Debug("sent", zap.Int("len", len(msg)))
	return nil
}

func (l *Link) record(dir trace.Direction, kind string, msg []byte) {
	if l.rec == nil {
		return
	}
	if err := l.rec.Record(dir, kind, msg); err != nil {
		l.log.Warn("failed to record trace", zap.Error(err))
	}
}

// Pump sends at most one pending message per tick until ctx is done.
func (l *Link) Pump(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := l.Flush(); err != nil {
				l.log.Warn("pump", zap.Error(err))
			}
		}
	}
}

// Forward sends each message as soon as it is queued until ctx is done.
func (l *Link) Forward(ctx context.Context) error {
	c := l.session.Outbox().C()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg := <-c:
			if err := l.transmit(msg); err != nil {
				l.log.Warn("forward", zap.Error(err))
			}
		}
	}
}

// Await runs request, sends what it queued and waits for the first incoming
// event accepted by match. The error from applying that event to the session
// is returned with it.
func (l *Link) Await(ctx context.Context, match func(protocol.Event) bool, request func() error) (protocol.Event, error) {
	w := &waiter{match: match, ch: make(chan result, 1)}
	l.mu.Lock()
	l.waiters[w] = struct{}{}
	l.mu.Unlock()
	defer func() {
		l.mu.Lock()
		delete(l.waiters, w)
		l.mu.Unlock()
	}()

	if err := request(); err != nil {
		return protocol.Event{}, err
	}
	if _, err := l.Flush(); err != nil {
		return protocol.Event{}, err
	}

	select {
	case r := <-w.ch:
		return r.ev, r.err
	case <-ctx.Done():
		return protocol.Event{}, fmt.Errorf("no reply from device: %w", ctx.Err())
	}
}

// Kinds matches events of any of the given kinds.
func Kinds(kinds ...protocol.Kind) func(protocol.Event) bool {
	return func(ev protocol.Event) bool {
		for _, k := range kinds {
			if ev.Kind == k {
				return true
			}
		}
		return false
	}
}
