package market

import (
	"context"
	"errors"
	"fmt"
)

// Conversations returns the conversations stored for userID, most recently
// added first.
func (s *Store) Conversations(ctx context.Context, userID string) ([]Conversation, error) {
	return s.UserConversations(userID).List(ctx)
}

// AddConversation stores c for userID unless a conversation with the same id
// is already there, in which case the stored one is kept unchanged. It
// reports whether c was stored.
func (s *Store) AddConversation(ctx context.Context, userID string, c Conversation) (bool, error) {
	inserted, err := s.UserConversations(userID).InsertIfAbsent(ctx, c)
	if err != nil {
		return false, fmt.Errorf("add conversation %s: %w", c.ID, err)
	}
	return inserted, nil
}

// MarkConversationRead resets the unread counter of userID's copy of the
// conversation. Other participants' copies are not touched.
func (s *Store) MarkConversationRead(ctx context.Context, userID, conversationID string) error {
	err := s.UserConversations(userID).Update(ctx, conversationID, func(c *Conversation) error {
		if c.Unread == 0 {
			return errUnchanged
		}
		c.Unread = 0
		return nil
	})
	if err != nil {
		return fmt.Errorf("mark conversation %s read: %w", conversationID, err)
	}
	return nil
}

// Messages returns the messages of a conversation, oldest first.
func (s *Store) Messages(ctx context.Context, conversationID string) ([]Message, error) {
	return s.ConversationMessages(conversationID).List(ctx)
}

// AddMessage appends m to its conversation and updates the last message of
// the sender's and the receiver's conversation copies. Only the receiver's
// unread counter is incremented. A participant without a copy of the
// conversation is skipped; no conversation is created.
func (s *Store) AddMessage(ctx context.Context, m Message) error {
	if err := s.ConversationMessages(m.ConversationID).Append(ctx, m); err != nil {
		return fmt.Errorf("add message: %w", err)
	}

	participants := []string{m.SenderID}
	if m.ReceiverID != m.SenderID {
		participants = append(participants, m.ReceiverID)
	}
	for _, userID := range participants {
		isReceiver := userID == m.ReceiverID
		err := s.UserConversations(userID).Update(ctx, m.ConversationID, func(c *Conversation) error {
			c.LastMessage = m.Content
			c.LastMessageTime = m.Timestamp
			if isReceiver {
				c.Unread++
			}
			return nil
		})
		if errors.Is(err, ErrNotFound) {
			s.logger.Debug("No conversation copy to update", "user_id", userID, "conversation_id", m.ConversationID)
			continue
		}
		if err != nil {
			return fmt.Errorf("update conversation %s for %s: %w", m.ConversationID, userID, err)
		}
	}
	return nil
}
