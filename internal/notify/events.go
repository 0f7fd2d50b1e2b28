package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"eadshop_back_end/internal/models"

	"github.com/segmentio/kafka-go"
)

const EventOrderPaid = "order.paid"

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

type OrderPaidEvent struct {
	Type            string             `json:"type"`
	OrderID         string             `json:"orderId"`
	PaymentIntentID string             `json:"paymentIntentId"`
	CustomerEmail   string             `json:"customerEmail"`
	TotalMinorUnits int64              `json:"totalMinorUnits"`
	Currency        string             `json:"currency"`
	Lines           []models.OrderLine `json:"lines"`
	PaidAt          time.Time          `json:"paidAt"`
}

// EventPublisher publie les commandes payées sur Kafka, clé = orderId
type EventPublisher struct {
	writer messageWriter
}

func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
	}
}

func NewEventPublisher(writer messageWriter) *EventPublisher {
	return &EventPublisher{writer: writer}
}

func (p *EventPublisher) Name() string { return "kafka" }

func (p *EventPublisher) Send(ctx context.Context, customerEmail string, order *models.Order) error {
	data, err := json.Marshal(OrderPaidEvent{
		Type:            EventOrderPaid,
		OrderID:         order.OrderID,
		PaymentIntentID: order.PaymentIntentID,
		CustomerEmail:   customerEmail,
		TotalMinorUnits: order.TotalMinorUnits,
		Currency:        order.Currency,
		Lines:           order.Lines,
		PaidAt:          order.UpdatedAt,
	})
	if err != nil {
		return err
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(order.OrderID),
		Value: data,
		Time:  time.Now().UTC(),
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(EventOrderPaid)},
		},
	})
	if err != nil {
		return fmt.Errorf("publication kafka: %w", err)
	}
	return nil
}
