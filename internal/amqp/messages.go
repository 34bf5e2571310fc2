package amqp

import (
	"encoding/json"
	"time"
)

// LedgerReplacedMessage announces that the primary ledger was rewritten.
// It carries no rows: consumers re-read the ledger, so a burst of messages
// collapses into one up-to-date copy.
type LedgerReplacedMessage struct {
	Rows      int       `json:"rows"`
	Timestamp time.Time `json:"timestamp"`
}

func NewLedgerReplacedMessage(rows int) *LedgerReplacedMessage {
	return &LedgerReplacedMessage{
		Rows:      rows,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *LedgerReplacedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LedgerReplacedMessageFromJSON decodes a message body.
func LedgerReplacedMessageFromJSON(data []byte) (*LedgerReplacedMessage, error) {
	var msg LedgerReplacedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
