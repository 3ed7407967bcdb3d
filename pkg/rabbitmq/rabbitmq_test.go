package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	amqp "github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"auctionbook/internal/models"
)

type published struct {
	exchange string
	key      string
	msg      amqp.Publishing
}

type fakeChannel struct {
	exchanges  []string
	published  []published
	bindings   []string
	deliveries chan amqp.Delivery
	publishErr error
	closeErr   error
	closed     bool
}

func newFakeChannel() *fakeChannel {
	return &fakeChannel{deliveries: make(chan amqp.Delivery, 8)}
}

func (f *fakeChannel) ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error {
	f.exchanges = append(f.exchanges, name+":"+kind)
	return nil
}

func (f *fakeChannel) Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	if f.publishErr != nil {
		return f.publishErr
	}
	f.published = append(f.published, published{exchange: exchange, key: key, msg: msg})
	return nil
}

func (f *fakeChannel) QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error) {
	if name == "" {
		name = "amq.gen-test"
	}
	return amqp.Queue{Name: name}, nil
}

func (f *fakeChannel) QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error {
	f.bindings = append(f.bindings, name+"<-"+exchange+"/"+key)
	return nil
}

func (f *fakeChannel) Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error) {
	return f.deliveries, nil
}

func (f *fakeChannel) Close() error {
	f.closed = true
	return f.closeErr
}

type ackRecorder struct {
	acked   []uint64
	nacked  []uint64
	requeue []bool
}

func (a *ackRecorder) Ack(tag uint64, multiple bool) error {
	a.acked = append(a.acked, tag)
	return nil
}

func (a *ackRecorder) Nack(tag uint64, multiple, requeue bool) error {
	a.nacked = append(a.nacked, tag)
	a.requeue = append(a.requeue, requeue)
	return nil
}

func (a *ackRecorder) Reject(tag uint64, requeue bool) error {
	return a.Nack(tag, false, requeue)
}

func sampleEvent(t models.AuctionEventType) models.AuctionEvent {
	return models.AuctionEvent{
		Type:        t,
		AuctionID:   "a1",
		PersonName:  "Asha",
		TotalAmount: "200.00",
		ItemCount:   1,
		OccurredAt:  time.Date(2024, time.March, 10, 9, 0, 0, 0, time.UTC),
	}
}

func TestNewClientDeclaresTopicExchange(t *testing.T) {
	ch := newFakeChannel()
	c, err := newClient(ch, "")
	require.NoError(t, err)

	assert.Equal(t, "auctions", c.exchange)
	assert.Equal(t, []string{"auctions:topic"}, ch.exchanges)
}

func TestPublishAuctionEvent(t *testing.T) {
	ch := newFakeChannel()
	c, err := newClient(ch, "auctions")
	require.NoError(t, err)

	require.NoError(t, c.PublishAuctionEvent(context.Background(), sampleEvent(models.AuctionPaid)))

	require.Len(t, ch.published, 1)
	p := ch.published[0]
	assert.Equal(t, "auctions", p.exchange)
	assert.Equal(t, "auction.paid", p.key)
	assert.Equal(t, "application/json", p.msg.ContentType)
	assert.Equal(t, amqp.Persistent, p.msg.DeliveryMode)

	var decoded models.AuctionEvent
	require.NoError(t, json.Unmarshal(p.msg.Body, &decoded))
	assert.Equal(t, sampleEvent(models.AuctionPaid), decoded)
}

func TestPublishAuctionEventErrors(t *testing.T) {
	ch := newFakeChannel()
	c, err := newClient(ch, "auctions")
	require.NoError(t, err)

	ch.publishErr = errors.New("channel closed")
	assert.Error(t, c.PublishAuctionEvent(context.Background(), sampleEvent(models.AuctionCreated)))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	ch.publishErr = nil
	assert.ErrorIs(t, c.PublishAuctionEvent(ctx, sampleEvent(models.AuctionCreated)), context.Canceled)
	assert.Empty(t, ch.published)
}

func TestConsumeAuctionEvents(t *testing.T) {
	ch := newFakeChannel()
	c, err := newClient(ch, "auctions")
	require.NoError(t, err)

	acks := &ackRecorder{}
	good, _ := json.Marshal(sampleEvent(models.AuctionCreated))
	failing, _ := json.Marshal(sampleEvent(models.AuctionDeleted))
	ch.deliveries <- amqp.Delivery{Acknowledger: acks, DeliveryTag: 1, Body: good}
	ch.deliveries <- amqp.Delivery{Acknowledger: acks, DeliveryTag: 2, Body: []byte("not json")}
	ch.deliveries <- amqp.Delivery{Acknowledger: acks, DeliveryTag: 3, Body: failing}
	ch.deliveries <- amqp.Delivery{Acknowledger: acks, DeliveryTag: 4, Body: failing, Redelivered: true}
	close(ch.deliveries)

	var seen []models.AuctionEventType
	err = c.ConsumeAuctionEvents(context.Background(), "", "", func(e models.AuctionEvent) error {
		seen = append(seen, e.Type)
		if e.Type == models.AuctionDeleted {
			return errors.New("handler failed")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"amq.gen-test<-auctions/auction.#"}, ch.bindings)
	assert.Equal(t, []models.AuctionEventType{models.AuctionCreated, models.AuctionDeleted, models.AuctionDeleted}, seen)
	assert.Equal(t, []uint64{1}, acks.acked)
	assert.Equal(t, []uint64{2, 3, 4}, acks.nacked)
	assert.Equal(t, []bool{false, true, false}, acks.requeue)
}

func TestConsumeAuctionEventsStopsOnContext(t *testing.T) {
	ch := newFakeChannel()
	c, err := newClient(ch, "auctions")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err = c.ConsumeAuctionEvents(ctx, "auction-audit", "auction.paid", func(models.AuctionEvent) error { return nil })

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, []string{"auction-audit<-auctions/auction.paid"}, ch.bindings)
}

func TestClose(t *testing.T) {
	ch := newFakeChannel()
	c, err := newClient(ch, "auctions")
	require.NoError(t, err)

	require.NoError(t, c.Close())
	assert.True(t, ch.closed)
}

func TestCloseReportsChannelError(t *testing.T) {
	ch := newFakeChannel()
	ch.closeErr = errors.New("already closed")
	c, err := newClient(ch, "auctions")
	require.NoError(t, err)

	err = c.Close()
	require.Error(t, err)
	assert.ErrorIs(t, err, ch.closeErr)
	assert.Contains(t, err.Error(), "failed to close channel")
}
