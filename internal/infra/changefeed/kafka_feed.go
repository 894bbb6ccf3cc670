package changefeed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/RoyceAzure/lab/orderadmin/internal/domain/model"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"
)

// MessageReader kafka.Reader 的子集，測試時替換
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// ReaderFactory 每個訂閱建立一個 reader
type ReaderFactory func(groupID string) MessageReader

type KafkaConfig struct {
	Brokers []string
	Topic   string
	// GroupPrefix 每個訂閱使用 prefix + uuid 當 consumer group，各自收到全部事件
	GroupPrefix string
	MaxWait     time.Duration
}

type KafkaFeed struct {
	cfg       KafkaConfig
	newReader ReaderFactory
}

func NewKafkaFeed(cfg KafkaConfig) *KafkaFeed {
	return NewKafkaFeedWithReader(cfg, func(groupID string) MessageReader {
		return kafka.NewReader(kafka.ReaderConfig{
			Brokers:     cfg.Brokers,
			Topic:       cfg.Topic,
			GroupID:     groupID,
			StartOffset: kafka.LastOffset,
			MinBytes:    1,
			MaxBytes:    1e6,
			MaxWait:     cfg.MaxWait,
			ErrorLogger: kafka.LoggerFunc(func(msg string, args ...interface{}) {
				log.Error().Msgf("kafka change feed reader: "+msg, args...)
			}),
		})
	})
}

func NewKafkaFeedWithReader(cfg KafkaConfig, factory ReaderFactory) *KafkaFeed {
	if cfg.MaxWait <= 0 {
		cfg.MaxWait = 500 * time.Millisecond
	}
	return &KafkaFeed{cfg: cfg, newReader: factory}
}

type kafkaSubscription struct {
	reader MessageReader
	ch     chan model.ChangeEvent
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
	err    error
}

func (s *kafkaSubscription) Events() <-chan model.ChangeEvent {
	return s.ch
}

func (s *kafkaSubscription) Close() error {
	s.once.Do(func() {
		s.cancel()
		<-s.done
		s.err = s.reader.Close()
	})
	return s.err
}

func (f *KafkaFeed) Subscribe(ctx context.Context, tables ...model.Table) (Subscription, error) {
	if len(tables) == 0 {
		return nil, ErrNoTables
	}
	groupID := fmt.Sprintf("%s-%s", f.cfg.GroupPrefix, uuid.New().String())
	subCtx, cancel := context.WithCancel(ctx)
	sub := &kafkaSubscription{
		reader: f.newReader(groupID),
		ch:     make(chan model.ChangeEvent, localBufferSize),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go f.consume(subCtx, sub, tableSet(tables))
	return sub, nil
}

// consume 讀取失敗即結束並關閉 channel，由上層決定是否重新訂閱
func (f *KafkaFeed) consume(ctx context.Context, sub *kafkaSubscription, tables map[model.Table]struct{}) {
	defer close(sub.done)
	defer close(sub.ch)

	for {
		msg, err := sub.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() == nil && !errors.Is(err, context.Canceled) {
				log.Error().Err(&FeedError{Operation: "read", Topic: f.cfg.Topic, Err: err}).Msg("change feed subscription ended")
			}
			return
		}

		evt, err := DecodeEvent(msg)
		if err != nil {
			log.Warn().Err(err).Int64("offset", msg.Offset).Msg("skip malformed change event")
			continue
		}
		if _, ok := tables[evt.Table]; !ok {
			continue
		}

		select {
		case sub.ch <- evt:
		case <-ctx.Done():
			return
		}
	}
}

func DecodeEvent(msg kafka.Message) (model.ChangeEvent, error) {
	var evt model.ChangeEvent
	if err := json.Unmarshal(msg.Value, &evt); err != nil {
		return evt, err
	}
	if evt.At.IsZero() {
		evt.At = msg.Time
	}
	return evt, evt.Validate()
}
