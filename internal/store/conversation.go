package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/roomatch/apiserver/types"
)

// ConversationRepository handles persistence for conversations and their
// messages. A conversation exclusively owns its messages.
type ConversationRepository struct {
	db *sql.DB
}

func NewConversationRepository(db *sql.DB) *ConversationRepository {
	return &ConversationRepository{db: db}
}

const conversationColumns = `
	id, initiator_id, peer_id, room_id, last_message_at, created_at, updated_at`

func scanConversation(row rowScanner) (types.Conversation, error) {
	var convo types.Conversation
	var initiatorID, peerID string
	err := row.Scan(
		&convo.ID,
		&initiatorID,
		&peerID,
		&convo.RoomID,
		&convo.LastMessageAt,
		&convo.CreatedAt,
		&convo.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Conversation{}, ErrNotFound
		}
		return types.Conversation{}, err
	}
	convo.ParticipantIDs = []string{initiatorID, peerID}
	return convo, nil
}

func (r *ConversationRepository) Get(ctx context.Context, id string) (types.Conversation, error) {
	const query = `SELECT ` + conversationColumns + ` FROM conversations WHERE id = $1`
	return scanConversation(r.db.QueryRowContext(ctx, query, id))
}

// ListByParticipant returns every conversation the user belongs to, most
// recent activity first; conversations with no activity sort last.
func (r *ConversationRepository) ListByParticipant(ctx context.Context, userID string) ([]types.Conversation, error) {
	const query = `
		SELECT ` + conversationColumns + `
		FROM conversations
		WHERE initiator_id = $1 OR peer_id = $1
		ORDER BY last_message_at DESC NULLS LAST, created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	convos := make([]types.Conversation, 0)
	for rows.Next() {
		convo, err := scanConversation(rows)
		if err != nil {
			return nil, err
		}
		convos = append(convos, convo)
	}
	return convos, rows.Err()
}

func (r *ConversationRepository) Create(ctx context.Context, convo types.Conversation) (types.Conversation, error) {
	now := time.Now()
	convo.ID = uuid.NewString()
	convo.CreatedAt = now
	convo.UpdatedAt = now

	const query = `
		INSERT INTO conversations (id, initiator_id, peer_id, room_id, last_message_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.db.ExecContext(
		ctx,
		query,
		convo.ID,
		convo.ParticipantIDs[0],
		convo.ParticipantIDs[1],
		convo.RoomID,
		convo.LastMessageAt,
		convo.CreatedAt,
		convo.UpdatedAt,
	)
	if err != nil {
		return types.Conversation{}, err
	}
	return convo, nil
}

// Touch updates the conversation's last-activity timestamp.
func (r *ConversationRepository) Touch(ctx context.Context, id string, at time.Time) error {
	const query = `UPDATE conversations SET last_message_at = $1, updated_at = $1 WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, at, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ConversationRepository) CreateMessage(ctx context.Context, msg types.Message) (types.Message, error) {
	msg.ID = uuid.NewString()
	msg.UpdatedAt = msg.CreatedAt

	const query = `
		INSERT INTO messages (id, conversation_id, sender_id, recipient_id, body, read_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.db.ExecContext(
		ctx,
		query,
		msg.ID,
		msg.ConversationID,
		msg.SenderID,
		msg.RecipientID,
		msg.Text,
		msg.ReadAt,
		msg.CreatedAt,
		msg.UpdatedAt,
	)
	if err != nil {
		return types.Message{}, err
	}
	return msg, nil
}

// ListMessages returns the full thread oldest first. Messages with equal
// creation timestamps keep insertion order via the seq column.
func (r *ConversationRepository) ListMessages(ctx context.Context, conversationID string) ([]types.Message, error) {
	const query = `
		SELECT id, conversation_id, sender_id, recipient_id, body, read_at, created_at, updated_at
		FROM messages
		WHERE conversation_id = $1
		ORDER BY created_at, seq`
	rows, err := r.db.QueryContext(ctx, query, conversationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := make([]types.Message, 0)
	for rows.Next() {
		var msg types.Message
		if err := rows.Scan(
			&msg.ID,
			&msg.ConversationID,
			&msg.SenderID,
			&msg.RecipientID,
			&msg.Text,
			&msg.ReadAt,
			&msg.CreatedAt,
			&msg.UpdatedAt,
		); err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}
