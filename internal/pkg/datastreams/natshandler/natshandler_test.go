package natshandler

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/ohowland/dres_core/internal/pkg/msg"
	"gotest.tools/v3/assert"
)

func TestReadConfig(t *testing.T) {
	pid, err := uuid.NewUUID()
	assert.NilError(t, err)
	pub := msg.NewPublisher(pid)

	h, err := New("natshandler_test_config.json", pub)
	assert.NilError(t, err)
	assert.Equal(t, h.config.Server, "nats://localhost:4222")
	assert.Assert(t, h.PID() != uuid.UUID{})
}

func TestMissingConfig(t *testing.T) {
	pid, err := uuid.NewUUID()
	assert.NilError(t, err)
	pub := msg.NewPublisher(pid)

	_, err = New("no_such_config.json", pub)
	assert.Assert(t, err != nil)
}

func TestInboxReceivesBothTopics(t *testing.T) {
	pid, err := uuid.NewUUID()
	assert.NilError(t, err)
	pub := msg.NewPublisher(pid)

	h, err := New("natshandler_test_config.json", pub)
	assert.NilError(t, err)

	pub.Publish(msg.Instance, "instance payload")
	pub.Publish(msg.Schedule, "schedule payload")

	got := make(map[msg.Topic]interface{})
	for i := 0; i < 2; i++ {
		select {
		case m := <-h.inbox:
			got[m.Topic()] = m.Payload()
		case <-time.After(2 * time.Second):
			t.Fatal("inbox did not receive both topics")
		}
	}

	assert.Equal(t, got[msg.Instance], "instance payload")
	assert.Equal(t, got[msg.Schedule], "schedule payload")
}

func TestProcessStopsWhenPublisherStops(t *testing.T) {
	pid, err := uuid.NewUUID()
	assert.NilError(t, err)
	pub := msg.NewPublisher(pid)

	h, err := New("natshandler_test_config.json", pub)
	assert.NilError(t, err)

	done := make(chan bool)
	go func() {
		h.Process()
		close(done)
	}()

	pub.Stop()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Process did not return after the publisher stopped")
	}
}

func TestInboxClosesWhenPublisherStops(t *testing.T) {
	pid, err := uuid.NewUUID()
	assert.NilError(t, err)
	pub := msg.NewPublisher(pid)

	h, err := New("natshandler_test_config.json", pub)
	assert.NilError(t, err)

	pub.Publish(msg.Schedule, "payload")
	pub.Stop()

	// the pending message is still delivered, then the inbox closes
	select {
	case m, ok := <-h.inbox:
		assert.Assert(t, ok)
		assert.Equal(t, m.Payload(), "payload")
	case <-time.After(2 * time.Second):
		t.Fatal("pending message was not delivered")
	}

	select {
	case _, ok := <-h.inbox:
		assert.Assert(t, !ok)
	case <-time.After(2 * time.Second):
		t.Fatal("inbox did not close after the publisher stopped")
	}
}
