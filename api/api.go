package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/localpi/pilocal/api/validator"
	"github.com/localpi/pilocal/market"
	"github.com/localpi/pilocal/payment"
)

// Store is the marketplace storage used by the handlers. It is implemented by
// *market.Store.
type Store interface {
	SearchListings(ctx context.Context, query, category string) ([]market.Listing, error)
	AddListing(ctx context.Context, l market.Listing) error
	DeleteListing(ctx context.Context, listingID string) error
	UserListings(ctx context.Context, userID string) ([]market.Listing, error)
	ToggleLike(ctx context.Context, listingID, userID string) (bool, error)
	IsLiked(ctx context.Context, listingID, userID string) (bool, error)
	Favorites(ctx context.Context, userID string) ([]string, error)
	FavoriteListings(ctx context.Context, userID string) ([]market.Listing, error)

	Conversations(ctx context.Context, userID string) ([]market.Conversation, error)
	AddConversation(ctx context.Context, userID string, c market.Conversation) (bool, error)
	MarkConversationRead(ctx context.Context, userID, conversationID string) error
	Messages(ctx context.Context, conversationID string) ([]market.Message, error)
	AddMessage(ctx context.Context, m market.Message) error

	EscrowTransactions(ctx context.Context, userID string) ([]market.EscrowTransaction, error)
	EscrowTransaction(ctx context.Context, userID, transactionID string) (market.EscrowTransaction, error)
	AddEscrowTransaction(ctx context.Context, userID string, t market.EscrowTransaction) error
	UpdateEscrowStatus(ctx context.Context, userID, transactionID string, status market.EscrowStatus) error

	Stats(ctx context.Context, userID string) (market.Stats, error)
	MemberSince(ctx context.Context, userID string, now time.Time) (time.Time, error)
}

// Payments prices and records payments. It is implemented by
// *payment.Service.
type Payments interface {
	Quote(amount string) (payment.Quote, error)
	Complete(ctx context.Context, c payment.Completion) (market.EscrowTransaction, error)
}

// API provides the local REST endpoints the marketplace UI talks to.
type API struct {
	Logger   *slog.Logger
	Store    Store
	Payments Payments
	Val      *validator.Validator

	// now and newID are replaced in tests.
	now   func() time.Time
	newID func() string

	once sync.Once
	mux  *http.ServeMux
}

func (a *API) setupRoutes() {
	if a.now == nil {
		a.now = time.Now
	}
	if a.newID == nil {
		a.newID = uuid.NewString
	}
	if a.Val == nil {
		a.Val = validator.New()
	}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /listings", a.listListings)
	mux.HandleFunc("POST /listings", a.createListing)
	mux.HandleFunc("DELETE /listings/{listingID}", a.deleteListing)
	mux.HandleFunc("POST /listings/{listingID}/likes", a.toggleLike)
	mux.HandleFunc("GET /listings/{listingID}/likes/{userID}", a.isLiked)

	mux.HandleFunc("GET /users/{userID}/listings", a.userListings)
	mux.HandleFunc("GET /users/{userID}/favorites", a.favorites)
	mux.HandleFunc("GET /users/{userID}/stats", a.stats)
	mux.HandleFunc("POST /users/{userID}/member-since", a.memberSince)

	mux.HandleFunc("GET /users/{userID}/conversations", a.listConversations)
	mux.HandleFunc("POST /users/{userID}/conversations", a.createConversation)
	mux.HandleFunc("POST /users/{userID}/conversations/{conversationID}/read", a.markRead)
	mux.HandleFunc("GET /conversations/{conversationID}/messages", a.listMessages)
	mux.HandleFunc("POST /conversations/{conversationID}/messages", a.createMessage)

	mux.HandleFunc("GET /users/{userID}/escrow", a.listEscrow)
	mux.HandleFunc("POST /users/{userID}/escrow", a.createEscrow)
	mux.HandleFunc("PATCH /users/{userID}/escrow/{transactionID}", a.updateEscrow)

	mux.HandleFunc("GET /payments/quote", a.quote)
	mux.HandleFunc("POST /payments/complete", a.completePayment)

	a.mux = mux
}

func (a *API) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.once.Do(a.setupRoutes)
	a.Logger.Info("Request received", "method", r.Method, "path", r.URL.Path)
	a.mux.ServeHTTP(w, r)
}

func (a *API) respond(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		a.Logger.Error("Could not encode JSON body", "error", err.Error())
	}
}

func (a *API) respondError(w http.ResponseWriter, status int, err error, msg string) {
	type response struct {
		Error string `json:"error"`
	}
	a.Logger.Error("Error", "error", err.Error())
	a.respond(w, status, response{Error: msg})
}

// respondStoreError picks the status code for an error coming from the store
// or the payment service.
func (a *API) respondStoreError(w http.ResponseWriter, err error, msg string) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, market.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, market.ErrInvalidTransition):
		status = http.StatusConflict
	case errors.Is(err, market.ErrInvalidStatus), errors.Is(err, market.ErrMissingID),
		errors.Is(err, payment.ErrInvalidAmount), errors.Is(err, payment.ErrSelfPurchase):
		status = http.StatusBadRequest
	case errors.Is(err, market.ErrUnavailable):
		status = http.StatusServiceUnavailable
	}
	a.respondError(w, status, err, msg)
}

func (a *API) validateBody(w http.ResponseWriter, s interface{}) bool {
	errs := a.Val.ValidateStruct(s)
	type response struct {
		Errors []validator.ValidationError `json:"errors"`
	}

	if len(errs) > 0 {
		a.respond(w, http.StatusBadRequest, &response{
			Errors: errs,
		})
		return false
	}
	return true
}

// decodeBody decodes the JSON request body into v and validates it. It writes
// the error response and returns false when the body is unusable.
func (a *API) decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		a.respondError(w, http.StatusBadRequest, err, "Could not decode request body")
		return false
	}
	return a.validateBody(w, v)
}
