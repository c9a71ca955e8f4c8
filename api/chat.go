package api

import (
	"net/http"

	"github.com/localpi/pilocal/market"
)

func (a *API) listConversations(w http.ResponseWriter, r *http.Request) {
	convs, err := a.Store.Conversations(r.Context(), r.PathValue("userID"))
	if err != nil {
		a.respondStoreError(w, err, "Could not list conversations")
		return
	}

	type response struct {
		Conversations []market.Conversation `json:"conversations"`
	}
	a.respond(w, http.StatusOK, response{Conversations: orEmpty(convs)})
}

func (a *API) createConversation(w http.ResponseWriter, r *http.Request) {
	type participant struct {
		ID   string `json:"id" validate:"required"`
		Name string `json:"name"`
	}
	type request struct {
		ID           string        `json:"id" validate:"required"`
		ListingID    string        `json:"listingId" validate:"required"`
		ListingTitle string        `json:"listingTitle"`
		Participants []participant `json:"participants" validate:"required,min=1,dive"`
	}
	var body request
	if !a.decodeBody(w, r, &body) {
		return
	}

	c := market.Conversation{
		ID:           body.ID,
		ListingID:    body.ListingID,
		ListingTitle: body.ListingTitle,
	}
	for _, p := range body.Participants {
		c.Participants = append(c.Participants, market.Participant{ID: p.ID, Name: p.Name})
	}

	inserted, err := a.Store.AddConversation(r.Context(), r.PathValue("userID"), c)
	if err != nil {
		a.respondStoreError(w, err, "Could not create conversation")
		return
	}

	type response struct {
		Inserted bool `json:"inserted"`
	}
	status := http.StatusOK
	if inserted {
		status = http.StatusCreated
	}
	a.respond(w, status, response{Inserted: inserted})
}

func (a *API) markRead(w http.ResponseWriter, r *http.Request) {
	err := a.Store.MarkConversationRead(r.Context(), r.PathValue("userID"), r.PathValue("conversationID"))
	if err != nil {
		a.respondStoreError(w, err, "Could not mark conversation read")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) listMessages(w http.ResponseWriter, r *http.Request) {
	msgs, err := a.Store.Messages(r.Context(), r.PathValue("conversationID"))
	if err != nil {
		a.respondStoreError(w, err, "Could not list messages")
		return
	}

	type response struct {
		Messages []market.Message `json:"messages"`
	}
	a.respond(w, http.StatusOK, response{Messages: orEmpty(msgs)})
}

func (a *API) createMessage(w http.ResponseWriter, r *http.Request) {
	type request struct {
		ID           string `json:"id"`
		SenderID     string `json:"senderId" validate:"required"`
		SenderName   string `json:"senderName"`
		ReceiverID   string `json:"receiverId" validate:"required"`
		ReceiverName string `json:"receiverName"`
		Content      string `json:"content" validate:"required"`
	}
	var body request
	if !a.decodeBody(w, r, &body) {
		return
	}

	m := market.Message{
		ID:             body.ID,
		ConversationID: r.PathValue("conversationID"),
		SenderID:       body.SenderID,
		SenderName:     body.SenderName,
		ReceiverID:     body.ReceiverID,
		ReceiverName:   body.ReceiverName,
		Content:        body.Content,
		Timestamp:      a.now().UTC(),
	}
	if m.ID == "" {
		m.ID = a.newID()
	}

	if err := a.Store.AddMessage(r.Context(), m); err != nil {
		a.respondStoreError(w, err, "Could not send message")
		return
	}
	a.respond(w, http.StatusCreated, m)
}
