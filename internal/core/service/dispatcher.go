package service

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"
	"wabot/internal/core/domain"
	"wabot/internal/core/port"

	"github.com/gofrs/uuid/v5"
	"github.com/rs/zerolog/log"
)

// Outcome is the terminal state of one dispatched message.
type Outcome int

const (
	// Ignored covers self messages, empty messages, non-commands and chats outside the allowlist.
	Ignored Outcome = iota
	NotFound
	Succeeded
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Ignored:
		return "ignored"
	case NotFound:
		return "not_found"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Recorder observes dispatch results for commands that reached resolution. Ignored messages are not recorded.
// plugin is empty unless a plugin was resolved.
type Recorder interface {
	RecordDispatch(outcome string, plugin string, elapsed time.Duration)
}

const (
	unknownCommand = "❓ Unknown command: %s"
	pluginFailed   = "⚠️ Error in plugin %s"
)

type Dispatcher struct {
	registry   port.PluginRegistry
	sender     port.TextSender
	db         port.Database
	prefix     string
	timeout    time.Duration
	authorizer Authorizer
	recorder   Recorder
	wg         sync.WaitGroup
}

type Option func(*Dispatcher)

// WithTimeout bounds each plugin invocation with a context deadline. Zero disables the bound.
func WithTimeout(timeout time.Duration) Option {
	return func(d *Dispatcher) {
		d.timeout = timeout
	}
}

func WithAuthorizer(a Authorizer) Option {
	return func(d *Dispatcher) {
		d.authorizer = a
	}
}

func WithRecorder(r Recorder) Option {
	return func(d *Dispatcher) {
		d.recorder = r
	}
}

// NewDispatcher creates a dispatcher. db may be nil, it is handed to plugins as is.
func NewDispatcher(registry port.PluginRegistry, sender port.TextSender, db port.Database, prefix string,
	opts ...Option) *Dispatcher {
	d := &Dispatcher{
		registry: registry,
		sender:   sender,
		db:       db,
		prefix:   prefix,
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

// Run handles messages from inbound until ctx is done or inbound is closed. Each message is handled in its own
// goroutine; Run waits for in-flight messages before returning.
func (d *Dispatcher) Run(ctx context.Context, inbound <-chan *domain.Message) error {
	defer d.wg.Wait()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("stopping dispatcher")
			return ctx.Err()
		case msg, ok := <-inbound:
			if !ok {
				log.Info().Msg("inbound stream closed, stopping dispatcher")
				return nil
			}

			d.wg.Add(1)
			go func() {
				defer d.wg.Done()
				d.Handle(ctx, msg)
			}()
		}
	}
}

// Handle runs one message through filtering, parsing, resolution and invocation. Plugin errors and panics are
// reported to the originating chat and never escape Handle.
func (d *Dispatcher) Handle(ctx context.Context, msg *domain.Message) Outcome {
	if msg == nil || msg.FromMe || !msg.HasContent {
		return Ignored
	}

	cmd, ok := domain.ParseCommand(msg.Text, d.prefix)
	if !ok {
		return Ignored
	}

	l := log.With().
		Str("messageId", msg.ID).
		Str("chatId", msg.ChatID).
		Str("command", cmd.Command).
		Logger()

	if d.authorizer != nil && !d.authorizer.IsAuthorized(msg.ChatID) {
		l.Debug().Msg("ignoring command from unauthorized chat")
		return Ignored
	}

	start := time.Now()

	p, err := d.registry.Resolve(cmd.Command)
	if err != nil {
		if !errors.Is(err, domain.ErrPluginNotFound) {
			l.Error().Err(err).Msg("failed to resolve command")
		}

		l.Debug().Msg("no plugin for command")
		d.reply(ctx, msg.ChatID, fmt.Sprintf(unknownCommand, cmd.Command))
		d.record(NotFound, "", start)

		return NotFound
	}

	invocationID, err := uuid.NewV4()
	if err != nil {
		l.Warn().Err(err).Msg("failed to generate invocation id")
	}

	l = l.With().
		Str("plugin", p.Name()).
		Str("invocationId", invocationID.String()).
		Logger()

	l.Info().Strs("args", cmd.Args).Msg("invoking plugin")

	err = d.invoke(ctx, p, &port.Invocation{
		Sender:  d.sender,
		Message: msg,
		Args:    cmd.Args,
		ChatID:  msg.ChatID,
		DB:      d.db,
	})
	if err != nil {
		l.Error().Err(err).Dur("elapsed", time.Since(start)).Msg("plugin failed")
		d.reply(ctx, msg.ChatID, fmt.Sprintf(pluginFailed, p.Name()))
		d.record(Failed, p.Name(), start)

		return Failed
	}

	l.Debug().Dur("elapsed", time.Since(start)).Msg("plugin finished")
	d.record(Succeeded, p.Name(), start)

	return Succeeded
}

func (d *Dispatcher) invoke(ctx context.Context, p port.Plugin, inv *port.Invocation) (err error) {
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	defer func() {
		if rec := recover(); rec != nil {
			log.Debug().Str("stack", string(debug.Stack())).Msg("recovered plugin panic")
			err = fmt.Errorf("plugin panic: %v", rec)
		}
	}()

	return p.Execute(ctx, inv)
}

func (d *Dispatcher) reply(ctx context.Context, chatID, text string) {
	if err := d.sender.SendText(ctx, chatID, text); err != nil {
		log.Error().Err(fmt.Errorf("%w: %w", domain.ErrSendingReplyFailed, err)).
			Str("chatId", chatID).
			Msg("failed to send reply")
	}
}

func (d *Dispatcher) record(outcome Outcome, plugin string, start time.Time) {
	if d.recorder == nil {
		return
	}
	d.recorder.RecordDispatch(outcome.String(), plugin, time.Since(start))
}
