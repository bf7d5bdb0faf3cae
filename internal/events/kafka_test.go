package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/fentz26/cleanops/internal/models"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestKafka_Publish(t *testing.T) {
	w := &fakeWriter{}
	k := &Kafka{writer: w, topic: "ops"}

	at := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	err := k.Publish(context.Background(),
		Event{Type: TypeTaskAssigned, DepartmentID: "d1", EmployeeID: "e1", TaskID: "t1", Timestamp: at},
		Event{Type: TypeTaskStatusChanged, DepartmentID: "d2", TaskID: "t2", From: models.TaskStatusPending, To: models.TaskStatusInProgress},
	)
	require.NoError(t, err)
	require.Len(t, w.msgs, 2)

	assert.Equal(t, "d1", string(w.msgs[0].Key))
	assert.Equal(t, at, w.msgs[0].Time)

	var got Event
	require.NoError(t, json.Unmarshal(w.msgs[1].Value, &got))
	assert.Equal(t, TypeTaskStatusChanged, got.Type)
	assert.Equal(t, models.TaskStatusInProgress, got.To)
	assert.False(t, got.Timestamp.IsZero(), "missing timestamps are stamped")

	require.NoError(t, k.Close())
	assert.True(t, w.closed)
}

func TestKafka_PublishError(t *testing.T) {
	w := &fakeWriter{err: errors.New("broker down")}
	k := &Kafka{writer: w, topic: "ops"}

	err := k.Publish(context.Background(), Event{Type: TypeAlertRaised, DepartmentID: "d1"})
	assert.ErrorContains(t, err, "broker down")
	assert.NoError(t, k.Publish(context.Background()))
}

func TestNop(t *testing.T) {
	var p Publisher = Nop{}
	assert.NoError(t, p.Publish(context.Background(), Event{Type: TypeTaskAssigned}))
	assert.NoError(t, p.Close())
}
