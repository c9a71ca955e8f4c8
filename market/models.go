package market

import "time"

// A Seller is the public profile of the user who posted a listing.
type Seller struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Verified bool    `json:"verified"`
	Rating   float64 `json:"rating"`
}

// A Listing is an item posted on the marketplace.
//
// LikedBy is the source of truth for likes. Likes is recomputed from it
// whenever a listing is read or written.
type Listing struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Price         string    `json:"price"`
	Description   string    `json:"description"`
	Location      string    `json:"location"`
	Category      string    `json:"category"`
	Images        []string  `json:"images"`
	Seller        Seller    `json:"seller"`
	Escrow        bool      `json:"escrow"`
	LocalDelivery bool      `json:"localDelivery"`
	CreatedAt     time.Time `json:"createdAt"`
	Likes         int       `json:"likes"`
	LikedBy       []string  `json:"likedBy"`
}

func (l Listing) recordID() string { return l.ID }

// A Message is sent between two participants of a conversation. Only Read
// changes after creation.
type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversationId"`
	SenderID       string    `json:"senderId"`
	SenderName     string    `json:"senderName"`
	ReceiverID     string    `json:"receiverId"`
	ReceiverName   string    `json:"receiverName"`
	Content        string    `json:"content"`
	Timestamp      time.Time `json:"timestamp"`
	Read           bool      `json:"read"`
}

func (m Message) recordID() string { return m.ID }

// A Participant is one side of a conversation.
type Participant struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// A Conversation is a thread about a listing. Each participant stores their
// own copy, so Unread is tracked per user.
type Conversation struct {
	ID              string        `json:"id"`
	ListingID       string        `json:"listingId"`
	ListingTitle    string        `json:"listingTitle"`
	Participants    []Participant `json:"participants"`
	LastMessage     string        `json:"lastMessage"`
	LastMessageTime time.Time     `json:"lastMessageTime"`
	Unread          int           `json:"unread"`
}

func (c Conversation) recordID() string { return c.ID }

// EscrowStatus is the lifecycle state of an escrow transaction.
type EscrowStatus string

const (
	EscrowPending   EscrowStatus = "pending"
	EscrowConfirmed EscrowStatus = "confirmed"
	EscrowReleased  EscrowStatus = "released"
	EscrowDisputed  EscrowStatus = "disputed"
)

// Valid reports whether s is a known status.
func (s EscrowStatus) Valid() bool {
	switch s {
	case EscrowPending, EscrowConfirmed, EscrowReleased, EscrowDisputed:
		return true
	}
	return false
}

// An EscrowTransaction tracks a payment held until the buyer confirms
// reception.
type EscrowTransaction struct {
	ID           string       `json:"id"`
	ListingID    string       `json:"listingId"`
	ListingTitle string       `json:"listingTitle"`
	BuyerID      string       `json:"buyerId"`
	SellerID     string       `json:"sellerId"`
	Amount       string       `json:"amount"`
	Status       EscrowStatus `json:"status"`
	CreatedAt    time.Time    `json:"createdAt"`
}

func (t EscrowTransaction) recordID() string { return t.ID }

// Stats are the per-user trading counters.
type Stats struct {
	Sales       int     `json:"sales"`
	Purchases   int     `json:"purchases"`
	PiExchanged float64 `json:"piExchanged"`
}

// TransactionKind says which side of a trade a user was on.
type TransactionKind string

const (
	KindSale     TransactionKind = "sale"
	KindPurchase TransactionKind = "purchase"
)
