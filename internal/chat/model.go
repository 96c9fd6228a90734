package chat

import "time"

// MaxBodyLen bounds a message body in characters.
const MaxBodyLen = 2000

type Conversation struct {
	ID            string    `json:"id"`
	CustomerID    string    `json:"customer_id"`
	VendorID      string    `json:"vendor_id"`
	ProductID     *string   `json:"product_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	LastMessageAt time.Time `json:"last_message_at"`
}

type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	SenderID       string    `json:"sender_id"`
	Body           string    `json:"body"`
	CreatedAt      time.Time `json:"created_at"`
}

// OpenConversationRequest payload of conversation start.
// swagger:model OpenConversationRequest
type OpenConversationRequest struct {
	VendorID  string  `json:"vendor_id"  binding:"required,uuid"`
	ProductID *string `json:"product_id" binding:"omitempty,uuid"`
}

// SendMessageRequest payload of a chat message.
// swagger:model SendMessageRequest
type SendMessageRequest struct {
	Body string `json:"body" binding:"required" example:"Is this available in blue?"`
}
