package api

import "time"

// ChatStatus is the terminal state of one acquisition attempt.
type ChatStatus string

const (
	// ChatStatusAnswered means a model produced non-empty text.
	ChatStatusAnswered ChatStatus = "answered"

	// ChatStatusExhausted means every configured model was tried without an answer.
	ChatStatusExhausted ChatStatus = "exhausted"
)

// ChatRequest is a single question sent to the shop assistant.
type ChatRequest struct {
	// SessionID groups exchanges of one chat window. When empty, a new
	// session is started and its ID is returned in the reply.
	SessionID string `json:"session_id,omitempty"`

	// Message is the customer's question.
	Message string `json:"message"`
}

// ChatReply is the assistant's answer, or the apology shown when no model answered.
type ChatReply struct {
	ID        string     `json:"id"`
	Object    string     `json:"object"` // always "chat.reply"
	SessionID string     `json:"session_id"`
	Status    ChatStatus `json:"status"`
	Text      string     `json:"text"`
	Model     string     `json:"model,omitempty"`
	Attempts  int        `json:"attempts"`
	CreatedAt int64      `json:"created_at"`
}

// Exchange is one recorded question/answer pair.
type Exchange struct {
	ID        string     `json:"id"`
	SessionID string     `json:"session_id"`
	Query     string     `json:"query"`
	Status    ChatStatus `json:"status"`
	Reply     string     `json:"reply,omitempty"`
	Reason    string     `json:"reason,omitempty"`
	Model     string     `json:"model,omitempty"`
	Attempts  int        `json:"attempts"`
	CreatedAt time.Time  `json:"created_at"`
}

// Transcript is the ordered list of exchanges in a session.
type Transcript struct {
	Object    string     `json:"object"` // always "list"
	SessionID string     `json:"session_id"`
	Data      []Exchange `json:"data"`
	HasMore   bool       `json:"has_more"`
}

// Greeting is the fixed welcome message that opens a chat window.
type Greeting struct {
	Object string `json:"object"` // always "chat.greeting"
	Text   string `json:"text"`
}

// ContactRequest is a contact form submission.
type ContactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone,omitempty"`
	Service string `json:"service,omitempty"`
	Message string `json:"message"`
}

// ContactReply carries the single user-facing confirmation text.
type ContactReply struct {
	ID      string `json:"id"`
	Object  string `json:"object"` // always "contact.reply"
	Message string `json:"message"`
}

// DeliveryStatus records whether one outbound copy of a submission was accepted.
type DeliveryStatus string

const (
	DeliveryStatusSent   DeliveryStatus = "sent"
	DeliveryStatusFailed DeliveryStatus = "failed"
)

// Submission is a recorded contact submission with the outcome of both
// outbound copies. Operators use it to follow up on failed deliveries.
type Submission struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	Email          string         `json:"email"`
	Phone          string         `json:"phone,omitempty"`
	Service        string         `json:"service,omitempty"`
	Message        string         `json:"message"`
	OperatorStatus DeliveryStatus `json:"operator_status"`
	SenderStatus   DeliveryStatus `json:"sender_status"`
	CreatedAt      time.Time      `json:"created_at"`
}

// Delivered reports whether both copies were accepted by the mail relay.
func (s *Submission) Delivered() bool {
	return s.OperatorStatus == DeliveryStatusSent && s.SenderStatus == DeliveryStatusSent
}

// SubmissionList holds a page of submissions.
type SubmissionList struct {
	Object  string       `json:"object"` // always "list"
	Data    []Submission `json:"data"`
	HasMore bool         `json:"has_more"`
}
