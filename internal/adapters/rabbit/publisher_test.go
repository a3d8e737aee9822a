package rabbit_test

import (
	"context"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/robertarktes/eventhub/internal/adapters/rabbit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func dialRabbit(t *testing.T) *amqp.Connection {
	t.Helper()
	if testing.Short() {
		t.Skip("requires docker")
	}
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "rabbitmq:3.13-management",
			ExposedPorts: []string{"5672/tcp", "15672/tcp"},
			WaitingFor:   wait.ForLog("Server startup complete"),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5672")
	require.NoError(t, err)

	conn, err := amqp.Dial("amqp://guest:guest@" + host + ":" + port.Port() + "/")
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestPublisher_ConfirmedDelivery(t *testing.T) {
	conn := dialRabbit(t)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	consumer, err := rabbit.NewConsumer(conn, "eventhub.test", "ticket.*")
	require.NoError(t, err)
	t.Cleanup(func() { _ = consumer.Close() })

	pub, err := rabbit.NewPublisher(conn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pub.Close() })

	require.NoError(t, pub.PublishJSON(ctx, "ticket.canceled", "msg-1", []byte(`{"id":"t1"}`)))

	deliveries, err := consumer.Consume(ctx)
	require.NoError(t, err)
	select {
	case d := <-deliveries:
		assert.Equal(t, "ticket.canceled", d.RoutingKey)
		assert.Equal(t, "msg-1", d.MessageId)
		assert.Equal(t, "application/json", d.ContentType)
		assert.JSONEq(t, `{"id":"t1"}`, string(d.Body))
		require.NoError(t, d.Ack(false))
	case <-ctx.Done():
		t.Fatal("message was confirmed but never delivered")
	}
}

func TestPublisher_ClosedChannelFails(t *testing.T) {
	conn := dialRabbit(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pub, err := rabbit.NewPublisher(conn)
	require.NoError(t, err)
	require.NoError(t, pub.Close())

	err = pub.PublishJSON(ctx, "ticket.canceled", "msg-2", []byte(`{}`))
	assert.Error(t, err)
}
