package changefeed

import (
	"context"
	"encoding/json"

	"github.com/RoyceAzure/lab/orderadmin/internal/domain/model"
	"github.com/segmentio/kafka-go"
)

// MessageWriter kafka.Writer 的子集
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaPublisher struct {
	topic  string
	writer MessageWriter
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return NewKafkaPublisherWithWriter(topic, &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	})
}

func NewKafkaPublisherWithWriter(topic string, writer MessageWriter) *KafkaPublisher {
	return &KafkaPublisher{topic: topic, writer: writer}
}

// Publish key 使用資料表名稱，同一張表的事件落在同一個 partition
func (p *KafkaPublisher) Publish(ctx context.Context, events ...model.ChangeEvent) error {
	if len(events) == 0 {
		return nil
	}
	msgs := make([]kafka.Message, 0, len(events))
	for _, evt := range events {
		value, err := json.Marshal(evt)
		if err != nil {
			return err
		}
		msgs = append(msgs, kafka.Message{
			Key:   []byte(evt.Table),
			Value: value,
			Headers: []kafka.Header{
				{Key: "event_type", Value: []byte(evt.Event)},
			},
			Time: evt.At,
		})
	}
	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return &FeedError{Operation: "write", Topic: p.topic, Err: err}
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
