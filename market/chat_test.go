package market

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func conversation(id string) Conversation {
	return Conversation{
		ID:           id,
		ListingID:    "l1",
		ListingTitle: "Bike",
		Participants: []Participant{{ID: "alice", Name: "Alice"}, {ID: "bob", Name: "Bob"}},
	}
}

func TestStore_AddConversationFirstWriteWins(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	first := conversation("c1")
	inserted, err := s.AddConversation(ctx, "alice", first)
	if err != nil {
		t.Fatal(err)
	}
	if !inserted {
		t.Error("First AddConversation() not inserted")
	}

	second := conversation("c1")
	second.ListingTitle = "Renamed"
	inserted, err = s.AddConversation(ctx, "alice", second)
	if err != nil {
		t.Fatal(err)
	}
	if inserted {
		t.Error("Second AddConversation() inserted")
	}

	got, err := s.Conversations(ctx, "alice")
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]Conversation{first}, got); diff != "" {
		t.Errorf("Conversations() mismatch (-want +got):\n%s", diff)
	}
}

func TestStore_ConversationsAreNamespaced(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	for _, id := range []string{"c1", "c2"} {
		if _, err := s.AddConversation(ctx, "alice", conversation(id)); err != nil {
			t.Fatal(err)
		}
	}
	got, _ := s.Conversations(ctx, "alice")
	if len(got) != 2 || got[0].ID != "c2" {
		t.Errorf("Conversations(alice) = %+v, want c2 then c1", got)
	}
	got, _ = s.Conversations(ctx, "bob")
	if len(got) != 0 {
		t.Errorf("Conversations(bob) = %+v, want none", got)
	}
}

func TestStore_AddMessage(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	for _, u := range []string{"alice", "bob"} {
		if _, err := s.AddConversation(ctx, u, conversation("c1")); err != nil {
			t.Fatal(err)
		}
	}

	ts := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	msgs := []Message{
		{ID: "m1", ConversationID: "c1", SenderID: "alice", ReceiverID: "bob", Content: "Still available?", Timestamp: ts},
		{ID: "m2", ConversationID: "c1", SenderID: "alice", ReceiverID: "bob", Content: "Hello?", Timestamp: ts.Add(time.Minute)},
		{ID: "m3", ConversationID: "c1", SenderID: "bob", ReceiverID: "alice", Content: "Yes", Timestamp: ts.Add(2 * time.Minute)},
	}
	for _, m := range msgs {
		if err := s.AddMessage(ctx, m); err != nil {
			t.Fatal(err)
		}
	}

	got, err := s.Messages(ctx, "c1")
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(msgs, got); diff != "" {
		t.Errorf("Messages() mismatch (-want +got):\n%s", diff)
	}

	tests := []struct {
		user       string
		wantUnread int
	}{
		{user: "alice", wantUnread: 1},
		{user: "bob", wantUnread: 2},
	}
	for _, tt := range tests {
		convs, err := s.Conversations(ctx, tt.user)
		if err != nil {
			t.Fatal(err)
		}
		c := convs[0]
		if c.LastMessage != "Yes" || !c.LastMessageTime.Equal(msgs[2].Timestamp) {
			t.Errorf("%s: last message = %q at %v, want %q at %v", tt.user, c.LastMessage, c.LastMessageTime, "Yes", msgs[2].Timestamp)
		}
		if c.Unread != tt.wantUnread {
			t.Errorf("%s: unread = %d, want %d", tt.user, c.Unread, tt.wantUnread)
		}
	}
}

func TestStore_AddMessageMissingConversation(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	if _, err := s.AddConversation(ctx, "alice", conversation("c1")); err != nil {
		t.Fatal(err)
	}

	m := Message{ID: "m1", ConversationID: "c1", SenderID: "alice", ReceiverID: "bob", Content: "Hi"}
	if err := s.AddMessage(ctx, m); err != nil {
		t.Fatal(err)
	}

	got, _ := s.Messages(ctx, "c1")
	if len(got) != 1 {
		t.Errorf("Got %d messages, want 1", len(got))
	}
	bob, _ := s.Conversations(ctx, "bob")
	if len(bob) != 0 {
		t.Errorf("A conversation was created for bob: %+v", bob)
	}
	alice, _ := s.Conversations(ctx, "alice")
	if alice[0].LastMessage != "Hi" || alice[0].Unread != 0 {
		t.Errorf("alice conversation = %+v, want last message Hi and no unread", alice[0])
	}
}

func TestStore_MarkConversationRead(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	for _, u := range []string{"alice", "bob"} {
		if _, err := s.AddConversation(ctx, u, conversation("c1")); err != nil {
			t.Fatal(err)
		}
	}
	for _, m := range []Message{
		{ID: "m1", ConversationID: "c1", SenderID: "alice", ReceiverID: "bob", Content: "1"},
		{ID: "m2", ConversationID: "c1", SenderID: "bob", ReceiverID: "alice", Content: "2"},
	} {
		if err := s.AddMessage(ctx, m); err != nil {
			t.Fatal(err)
		}
	}

	if err := s.MarkConversationRead(ctx, "bob", "c1"); err != nil {
		t.Fatal(err)
	}
	bob, _ := s.Conversations(ctx, "bob")
	if bob[0].Unread != 0 {
		t.Errorf("bob unread = %d, want 0", bob[0].Unread)
	}
	alice, _ := s.Conversations(ctx, "alice")
	if alice[0].Unread != 1 {
		t.Errorf("alice unread = %d, want 1", alice[0].Unread)
	}

	// Marking an already read conversation is fine.
	if err := s.MarkConversationRead(ctx, "bob", "c1"); err != nil {
		t.Errorf("MarkConversationRead() again: %v", err)
	}
	if err := s.MarkConversationRead(ctx, "bob", "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Got error %v, want ErrNotFound", err)
	}
}
