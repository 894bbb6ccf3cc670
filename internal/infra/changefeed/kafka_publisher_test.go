package changefeed

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/RoyceAzure/lab/orderadmin/internal/domain/model"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockWriter struct {
	mock.Mock
}

func (m *mockWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	args := m.Called(ctx, msgs)
	return args.Error(0)
}

func (m *mockWriter) Close() error {
	return m.Called().Error(0)
}

func TestKafkaPublisher_Publish(t *testing.T) {
	w := new(mockWriter)
	var written []kafka.Message
	w.On("WriteMessages", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		written = args.Get(1).([]kafka.Message)
	}).Return(nil)

	p := NewKafkaPublisherWithWriter("order-changes", w)
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	err := p.Publish(context.Background(), model.ChangeEvent{Event: model.ChangeUpdate, Table: model.TableOrders, RecordID: "o-1", At: at})
	require.NoError(t, err)

	require.Len(t, written, 1)
	require.Equal(t, "orders", string(written[0].Key))
	require.Equal(t, "event_type", written[0].Headers[0].Key)
	require.Equal(t, "update", string(written[0].Headers[0].Value))

	var evt model.ChangeEvent
	require.NoError(t, json.Unmarshal(written[0].Value, &evt))
	require.Equal(t, "o-1", evt.RecordID)
	require.True(t, evt.At.Equal(at))
	w.AssertExpectations(t)
}

func TestKafkaPublisher_WrapsWriteError(t *testing.T) {
	w := new(mockWriter)
	cause := errors.New("leader not available")
	w.On("WriteMessages", mock.Anything, mock.Anything).Return(cause)

	p := NewKafkaPublisherWithWriter("order-changes", w)
	err := p.Publish(context.Background(), model.ChangeEvent{Event: model.ChangeDelete, Table: model.TableOrders})

	var feedErr *FeedError
	require.ErrorAs(t, err, &feedErr)
	require.Equal(t, "write", feedErr.Operation)
	require.ErrorIs(t, err, cause)
}

func TestKafkaPublisher_NoEvents(t *testing.T) {
	w := new(mockWriter)
	p := NewKafkaPublisherWithWriter("order-changes", w)
	require.NoError(t, p.Publish(context.Background()))
	w.AssertNotCalled(t, "WriteMessages", mock.Anything, mock.Anything)
}
