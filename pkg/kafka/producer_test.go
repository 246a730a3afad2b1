package kafka

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProducerDefaults(t *testing.T) {
	p, err := NewProducer(Config{Brokers: []string{"localhost:9092"}, Topic: "grading-events"})
	require.NoError(t, err)
	defer p.Close()

	assert.Equal(t, "grading-events", p.writer.Topic)
	assert.Equal(t, DefaultBatchTimeout, p.writer.BatchTimeout)
	assert.Equal(t, 5*time.Second, p.writer.WriteTimeout)
}

func TestNewProducerKeepsBatchTimeout(t *testing.T) {
	p, err := NewProducer(Config{Brokers: []string{"localhost:9092"}, Topic: "t", BatchTimeout: 50 * time.Millisecond})
	require.NoError(t, err)
	defer p.Close()

	assert.Equal(t, 50*time.Millisecond, p.writer.BatchTimeout)
}

func TestNewProducerRequiresBrokersAndTopic(t *testing.T) {
	_, err := NewProducer(Config{Topic: "t"})
	assert.Error(t, err)

	_, err = NewProducer(Config{Brokers: []string{"localhost:9092"}})
	assert.Error(t, err)
}
