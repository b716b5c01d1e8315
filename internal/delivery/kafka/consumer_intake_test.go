package kafka

import (
	"context"
	"fmt"
	"testing"

	"github.com/pkg/errors"
	kafka "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"

	"orderdesk/internal/models"
	"orderdesk/internal/repository/memory"
	"orderdesk/internal/service"
)

// lostAck reports the first delivery as unavailable after the order was
// already stored, like a commit whose acknowledgement never arrived.
type lostAck struct {
	svc   *service.Service
	calls int
	ids   []string
}

func (h *lostAck) HandleMessage(ctx context.Context, messageID string, payload []byte) error {
	h.calls++
	h.ids = append(h.ids, messageID)
	err := h.svc.HandleMessage(ctx, messageID, payload)
	if h.calls == 1 && err == nil {
		return errors.Wrap(service.ErrUnavailable, "commit: connection reset by peer")
	}
	return err
}

func TestConsumer_RetryAfterLostCommitCreatesOneOrder(t *testing.T) {
	ctx := context.Background()
	svc := service.NewService(memory.NewRepository())
	c, err := svc.CreateCustomer(ctx, models.CustomerInput{
		Name:      "Sara",
		Phone1:    "0911",
		Addresses: []models.AddressInput{{Title: "home", Text: "Main street 5"}},
	})
	require.NoError(t, err)

	payload := fmt.Sprintf(`{"customerId":%q,"items":[{"name":"Lamp","quantity":1,"price":40}],"shippingCost":5}`, c.ID)
	h := &lostAck{svc: svc}
	r, w, _ := run(t, Config{MaxRetries: 3}, []kafka.Message{
		{Topic: "orders.intake", Partition: 2, Offset: 41, Value: []byte(payload)},
	}, h)

	require.Equal(t, 2, h.calls)
	require.Equal(t, h.ids[0], h.ids[1])
	require.Equal(t, "orders.intake/2/41", h.ids[0])
	require.Equal(t, []int64{41}, r.committed)
	require.Empty(t, w.written)

	orders, err := svc.CustomerOrders(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	require.Equal(t, service.IntakeOrderID("orders.intake/2/41"), orders[0].ID)

	cust, err := svc.GetCustomer(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, cust.Orders, 1)
}
