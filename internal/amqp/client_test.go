package amqp

import (
	"context"
	"errors"
	"testing"
)

type fakeAck struct {
	acked    bool
	nacked   bool
	requeued bool
}

func (f *fakeAck) Ack(bool) error { f.acked = true; return nil }
func (f *fakeAck) Nack(_, requeue bool) error {
	f.nacked, f.requeued = true, requeue
	return nil
}

func TestLedgerReplacedMessageJSON(t *testing.T) {
	msg := NewLedgerReplacedMessage(42)
	body, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}
	back, err := LedgerReplacedMessageFromJSON(body)
	if err != nil {
		t.Fatalf("FromJSON: %v", err)
	}
	if back.Rows != 42 || !back.Timestamp.Equal(msg.Timestamp) {
		t.Fatalf("unexpected message: %+v", back)
	}
}

func TestSettle(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		handlerErr error
		wantAck    bool
		wantNack   bool
		wantQueue  bool
		wantCalled bool
	}{
		{name: "success acks", body: `{"rows":3}`, wantAck: true, wantCalled: true},
		{name: "handler error is dropped", body: `{"rows":3}`, handlerErr: errors.New("sheets down"), wantNack: true, wantCalled: true},
		{name: "bad body is dropped", body: `not json`, wantNack: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ack := &fakeAck{}
			called := false
			settle(context.Background(), []byte(tt.body), ack, func(_ context.Context, m *LedgerReplacedMessage) error {
				called = true
				if m.Rows != 3 {
					t.Errorf("rows = %d", m.Rows)
				}
				return tt.handlerErr
			})
			if called != tt.wantCalled || ack.acked != tt.wantAck || ack.nacked != tt.wantNack || ack.requeued != tt.wantQueue {
				t.Errorf("called=%v acked=%v nacked=%v requeued=%v", called, ack.acked, ack.nacked, ack.requeued)
			}
		})
	}
}

func TestQueueKeepsOnlyLatestMessage(t *testing.T) {
	args := queueArgs()
	if got := args["x-max-length"]; got != int32(1) {
		t.Errorf("x-max-length = %v", got)
	}
	if got := args["x-overflow"]; got != "drop-head" {
		t.Errorf("x-overflow = %v", got)
	}
}
