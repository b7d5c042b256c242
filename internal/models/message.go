package models

type Message struct {
	ID        string        `json:"id"`
	From      string        `json:"from"`
	To        string        `json:"to"`
	Subject   string        `json:"subject"`
	Content   string        `json:"content"`
	Priority  Priority      `json:"priority"`
	Status    MessageStatus `json:"status"`
	Channel   string        `json:"channel,omitempty"`
	Timestamp string        `json:"timestamp"`
}

func (m Message) Key() string {
	return m.ID
}

// OperationsSender is the outgoing address used for messages sent from the console.
const OperationsSender = "operations@ndma.gov.in"

type MessageDraft struct {
	From     string        `json:"from"`
	To       string        `json:"to"`
	Subject  string        `json:"subject"`
	Content  string        `json:"content"`
	Priority Priority      `json:"priority"`
	Status   MessageStatus `json:"status"`
	Channel  string        `json:"channel,omitempty"`
}

func NewMessageDraft() MessageDraft {
	return MessageDraft{
		From:     OperationsSender,
		Priority: PriorityNormal,
		Status:   MessageStatusSent,
		Channel:  "Email",
	}
}

func (d MessageDraft) Validate() error {
	return requireFields("to", d.To, "subject", d.Subject, "content", d.Content)
}
