package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAck struct {
	acked, nacked, requeued bool
}

func (f *fakeAck) Ack(bool) error { f.acked = true; return nil }
func (f *fakeAck) Nack(_ bool, requeue bool) error {
	f.nacked, f.requeued = true, requeue
	return nil
}

func TestNewAndDecode(t *testing.T) {
	e, err := New(OrderCreated, OrderCreatedData{OrderID: "o1", TotalCents: 5198})
	require.NoError(t, err)
	assert.NotEmpty(t, e.ID)
	assert.Equal(t, OrderCreated, e.Type)

	var d OrderCreatedData
	require.NoError(t, e.Decode(&d))
	assert.Equal(t, "o1", d.OrderID)
	assert.EqualValues(t, 5198, d.TotalCents)
}

func TestLocalDispatches(t *testing.T) {
	var got []Type
	l := NewLocal(func(_ context.Context, e Event) error {
		got = append(got, e.Type)
		return errors.New("handler errors are logged, not returned")
	})
	Emit(context.Background(), l, PaymentUpdated, PaymentData{PaymentID: "p1"})
	assert.Equal(t, []Type{PaymentUpdated}, got)
}

func TestProcessAcksAndNacks(t *testing.T) {
	ok := func(context.Context, Event) error { return nil }
	fail := func(context.Context, Event) error { return errors.New("boom") }

	e, _ := New(OrderStatusChanged, OrderStatusData{OrderID: "o1"})
	body := []byte(`{"id":"` + e.ID + `","type":"order.status_changed","data":{}}`)

	a := &fakeAck{}
	process(context.Background(), body, false, a, ok)
	assert.True(t, a.acked)

	a = &fakeAck{}
	process(context.Background(), []byte("not json"), false, a, ok)
	assert.True(t, a.nacked)
	assert.False(t, a.requeued, "malformed messages are dead-lettered")

	a = &fakeAck{}
	process(context.Background(), body, false, a, fail)
	assert.True(t, a.requeued)

	a = &fakeAck{}
	process(context.Background(), body, true, a, fail)
	assert.False(t, a.requeued, "a redelivered failure is not retried again")
}
