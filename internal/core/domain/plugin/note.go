package plugin

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"wabot/internal/core/domain"
	"wabot/internal/core/port"

	"github.com/rs/zerolog/log"
)

// Note stores short per-chat notes in the database handle passed with each invocation.
type Note struct {
	mu    sync.Mutex
	ready bool
	limit int
	usage string
}

// NewNote creates the note plugin. prefix is only used to render the usage reply.
func NewNote(prefix string) *Note {
	return &Note{
		limit: noteListLimit,
		usage: fmt.Sprintf(noteUsage, prefix),
	}
}

func (n *Note) Name() string {
	return "note"
}

func (n *Note) Description() string {
	return "Saves notes for this chat: note add <text> | note list | note clear"
}

const (
	noteListLimit = 20

	noteUsage       = "Usage: %[1]snote add <text> | %[1]snote list | %[1]snote clear"
	noteNoDatabase  = "Notes are unavailable, no database is connected."
	noteSaved       = "📝 Saved note #%d"
	noteEmpty       = "No notes saved in this chat."
	noteCleared     = "🗑️ Removed %d note%s"
	noteListHeading = "Notes:"
)

const (
	createNotesTable = `CREATE TABLE IF NOT EXISTS notes (
		id BIGSERIAL PRIMARY KEY,
		chat_id TEXT NOT NULL,
		body TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`
	insertNote  = `INSERT INTO notes (chat_id, body) VALUES ($1, $2) RETURNING id`
	selectNotes = `SELECT id, body FROM notes WHERE chat_id = $1 ORDER BY id LIMIT $2`
	deleteNotes = `DELETE FROM notes WHERE chat_id = $1`
)

func (n *Note) Execute(ctx context.Context, inv *port.Invocation) error {
	l := log.With().
		Str("chatId", inv.ChatID).
		Str("command", n.Name()).
		Logger()

	if inv.DB == nil {
		l.Debug().Msg("no database handle")
		return n.reply(ctx, inv, noteNoDatabase)
	}

	if len(inv.Args) == 0 {
		return n.reply(ctx, inv, n.usage)
	}

	if err := n.ensureSchema(ctx, inv.DB); err != nil {
		return err
	}

	switch strings.ToLower(inv.Args[0]) {
	case "add":
		body := strings.Join(inv.Args[1:], " ")
		if body == "" {
			return n.reply(ctx, inv, n.usage)
		}

		var id int64
		if err := inv.DB.QueryRowContext(ctx, insertNote, inv.ChatID, body).Scan(&id); err != nil {
			return fmt.Errorf("insert note: %w", err)
		}

		l.Info().Int64("noteId", id).Msg("saved note")
		return n.reply(ctx, inv, fmt.Sprintf(noteSaved, id))
	case "list":
		text, err := n.list(ctx, inv.DB, inv.ChatID)
		if err != nil {
			return err
		}
		return n.reply(ctx, inv, text)
	case "clear":
		res, err := inv.DB.ExecContext(ctx, deleteNotes, inv.ChatID)
		if err != nil {
			return fmt.Errorf("delete notes: %w", err)
		}

		count, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("delete notes: %w", err)
		}

		var plural string
		if count != 1 {
			plural = "s"
		}

		l.Info().Int64("count", count).Msg("cleared notes")
		return n.reply(ctx, inv, fmt.Sprintf(noteCleared, count, plural))
	default:
		return n.reply(ctx, inv, n.usage)
	}
}

func (n *Note) list(ctx context.Context, db port.Database, chatID string) (string, error) {
	rows, err := db.QueryContext(ctx, selectNotes, chatID, n.limit)
	if err != nil {
		return "", fmt.Errorf("list notes: %w", err)
	}
	defer rows.Close()

	sb := &strings.Builder{}
	sb.WriteString(noteListHeading)

	count := 0
	for rows.Next() {
		var id int64
		var body string
		if err := rows.Scan(&id, &body); err != nil {
			return "", fmt.Errorf("scan note: %w", err)
		}
		sb.WriteString("\n#" + strconv.FormatInt(id, 10) + " " + body)
		count++
	}

	if err := rows.Err(); err != nil {
		return "", fmt.Errorf("list notes: %w", err)
	}

	if count == 0 {
		return noteEmpty, nil
	}

	return sb.String(), nil
}

func (n *Note) ensureSchema(ctx context.Context, db port.Database) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.ready {
		return nil
	}

	if _, err := db.ExecContext(ctx, createNotesTable); err != nil {
		return fmt.Errorf("create notes table: %w", err)
	}

	n.ready = true
	return nil
}

func (n *Note) reply(ctx context.Context, inv *port.Invocation, text string) error {
	if err := inv.Sender.SendText(ctx, inv.ChatID, text); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrSendingReplyFailed, err)
	}

	return nil
}
