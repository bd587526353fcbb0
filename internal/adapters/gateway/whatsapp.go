package gateway

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"wabot/internal/core/domain"

	"github.com/rs/zerolog/log"
	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/store/sqlstore"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
	waLog "go.mau.fi/whatsmeow/util/log"

	_ "github.com/mattn/go-sqlite3" // session store driver
)

const inboundBuffer = 64

var errPairingEnded = errors.New("pairing channel ended before a code was issued")

type WhatsAppConfig struct {
	// SessionPath is the SQLite file holding the device credentials.
	SessionPath string
	// PhoneNumber is the bot's number in international format without '+', used to request a pairing code.
	PhoneNumber string
}

// WhatsApp owns the whatsmeow client. Credentials are persisted in SessionPath; a missing session is paired
// with a pairing code for PhoneNumber that is printed to the log.
type WhatsApp struct {
	cfg       WhatsAppConfig
	container *sqlstore.Container
	client    *whatsmeow.Client
	inbound   chan *domain.Message
}

func NewWhatsApp(ctx context.Context, cfg WhatsAppConfig) (*WhatsApp, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.SessionPath), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create session directory: %w", err)
	}

	container, err := sqlstore.New(ctx, "sqlite3",
		fmt.Sprintf("file:%s?_foreign_keys=on", cfg.SessionPath), waLog.Noop)
	if err != nil {
		return nil, fmt.Errorf("failed to open session store: %w", err)
	}

	device, err := container.GetFirstDevice(ctx)
	if err != nil {
		_ = container.Close()
		return nil, fmt.Errorf("failed to load device: %w", err)
	}

	w := &WhatsApp{
		cfg:       cfg,
		container: container,
		client:    whatsmeow.NewClient(device, waLog.Noop),
		inbound:   make(chan *domain.Message, inboundBuffer),
	}
	w.client.AddEventHandler(w.handleEvent)

	return w, nil
}

// Client exposes the underlying client for the sender adapter.
func (w *WhatsApp) Client() *whatsmeow.Client {
	return w.client
}

func (w *WhatsApp) Messages() <-chan *domain.Message {
	return w.inbound
}

func (w *WhatsApp) Connect(ctx context.Context) error {
	if w.client.Store.ID != nil {
		log.Info().Str("jid", w.client.Store.ID.String()).Msg("restoring whatsapp session")

		if err := w.client.Connect(); err != nil {
			return fmt.Errorf("failed to connect: %w", err)
		}
		return nil
	}

	if w.cfg.PhoneNumber == "" {
		return errors.New("no session stored and no phone number configured for pairing")
	}

	qrChan, err := w.client.GetQRChannel(ctx)
	if err != nil {
		return fmt.Errorf("failed to get pairing channel: %w", err)
	}

	if err := w.client.Connect(); err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}

	ready := make(chan error, 1)
	go watchPairing(qrChan, ready)

	select {
	case <-ctx.Done():
		w.client.Disconnect()
		return ctx.Err()
	case err := <-ready:
		if err != nil {
			w.client.Disconnect()
			return fmt.Errorf("failed to start pairing: %w", err)
		}
	}

	code, err := w.client.PairPhone(ctx, w.cfg.PhoneNumber, true, whatsmeow.PairClientChrome, "Chrome (Linux)")
	if err != nil {
		return fmt.Errorf("failed to get pairing code: %w", err)
	}

	log.Info().Str("code", code).Msg("pair this bot using code")

	return nil
}

// watchPairing drains the pairing channel. ready receives nil once the server accepts pairing requests, or an
// error if the channel ends before that.
func watchPairing(qrChan <-chan whatsmeow.QRChannelItem, ready chan<- error) {
	signalled := false
	last := "closed"

	for evt := range qrChan {
		switch evt.Event {
		case whatsmeow.QRChannelEventCode:
			if !signalled {
				signalled = true
				ready <- nil
			}
			continue
		case whatsmeow.QRChannelSuccess.Event:
			log.Info().Msg("whatsapp pairing succeeded")
		case whatsmeow.QRChannelEventError:
			log.Error().Err(evt.Error).Msg("whatsapp pairing failed")
		default:
			log.Warn().Str("event", evt.Event).Msg("whatsapp pairing ended")
		}
		last = evt.Event
	}

	if !signalled {
		ready <- fmt.Errorf("%w: %s", errPairingEnded, last)
	}
}

func (w *WhatsApp) Disconnect() {
	w.client.Disconnect()

	if err := w.container.Close(); err != nil {
		log.Warn().Err(err).Msg("failed to close session store")
	}
}

func (w *WhatsApp) handleEvent(evt any) {
	switch v := evt.(type) {
	case *events.Connected:
		log.Info().Msg("connected to whatsapp")
	case *events.Disconnected:
		log.Warn().Msg("disconnected from whatsapp")
	case *events.LoggedOut:
		log.Error().Str("reason", v.Reason.String()).Msg("logged out from whatsapp")
	case *events.Message:
		if msg := messageFromEvent(v); msg != nil {
			w.inbound <- msg
		}
	}
}

// messageFromEvent converts a whatsmeow message event. Status broadcasts are dropped.
func messageFromEvent(evt *events.Message) *domain.Message {
	if evt == nil || evt.Info.Chat.Server == types.BroadcastServer {
		return nil
	}

	msg := &domain.Message{
		ID:         string(evt.Info.ID),
		ChatID:     evt.Info.Chat.String(),
		SenderID:   evt.Info.Sender.String(),
		FromMe:     evt.Info.IsFromMe,
		HasContent: evt.Message != nil,
	}

	if evt.Message == nil {
		return msg
	}

	msg.Text = evt.Message.GetConversation()
	if msg.Text == "" {
		msg.Text = evt.Message.GetExtendedTextMessage().GetText()
	}

	quoted := evt.Message.GetExtendedTextMessage().GetContextInfo().GetQuotedMessage()
	msg.QuotedText = quoted.GetConversation()
	if msg.QuotedText == "" {
		msg.QuotedText = quoted.GetExtendedTextMessage().GetText()
	}

	return msg
}
