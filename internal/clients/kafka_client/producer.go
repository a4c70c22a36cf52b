package kafka_client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/confluentinc/confluent-kafka-go/kafka"
	"github.com/spacesedan/sentilens/internal/models"
	"github.com/spacesedan/sentilens/internal/utils"
)

var ErrPublisherClosed = errors.New("[KafkaClient] publisher is closed")

// producerAPI is the subset of *kafka.Producer the publisher needs.
type producerAPI interface {
	Produce(msg *kafka.Message, deliveryChan chan kafka.Event) error
	Events() chan kafka.Event
	Flush(timeoutMs int) int
	Close()
}

// AnalysisPublisher buffers analysis events and produces them in batches,
// either when the buffer fills or when the batch interval elapses.
type AnalysisPublisher struct {
	producer producerAPI
	cfg      KafkaConfig
	buffer   *utils.BatchBuffer[models.AnalysisEvent]
	flushNow chan struct{}

	// mu orders Publish against Close so nothing is buffered after the
	// final drain.
	mu     sync.RWMutex
	closed bool

	wg        sync.WaitGroup
	closeOnce sync.Once
	done      chan struct{}
}

func NewAnalysisPublisher(cfg KafkaConfig) (*AnalysisPublisher, error) {
	cfg = cfg.Normalize()
	slog.Info("[KafkaClient] Initializing Kafka Producer...",
		slog.String("broker", cfg.Broker),
		slog.String("topic", cfg.Topic))

	p, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers":   cfg.Broker,
		"security.protocol":   "PLAINTEXT",
		"api.version.request": "true",
		"enable.idempotence":  true,
		"acks":                "all",
		"client.id":           PRODUCER_ID,
	})
	if err != nil {
		return nil, fmt.Errorf("[KafkaClient] Failed to create producer: %w", err)
	}

	slog.Info("[KafkaClient] Kafka Producer initialized successfully")
	return newAnalysisPublisher(p, cfg), nil
}

func newAnalysisPublisher(p producerAPI, cfg KafkaConfig) *AnalysisPublisher {
	cfg = cfg.Normalize()
	ap := &AnalysisPublisher{
		producer: p,
		cfg:      cfg,
		buffer:   utils.NewBatchBuffer[models.AnalysisEvent](cfg.BatchSize),
		flushNow: make(chan struct{}, 1),
		done:     make(chan struct{}),
	}

	ap.wg.Add(2)
	go ap.deliveryReports()
	go ap.flushLoop()
	return ap
}

// Publish queues ev. It never blocks on the broker and fails once Close has
// started.
func (ap *AnalysisPublisher) Publish(_ context.Context, ev models.AnalysisEvent) error {
	ap.mu.RLock()
	defer ap.mu.RUnlock()
	if ap.closed {
		return ErrPublisherClosed
	}

	if full := ap.buffer.Add(ev); full {
		select {
		case ap.flushNow <- struct{}{}:
		default:
		}
	}
	return nil
}

func (ap *AnalysisPublisher) flushLoop() {
	defer ap.wg.Done()
	ticker := time.NewTicker(ap.cfg.BatchInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ap.done:
			return
		case <-ticker.C:
			ap.produceBatch()
		case <-ap.flushNow:
			ap.produceBatch()
		}
	}
}

func (ap *AnalysisPublisher) produceBatch() int {
	if ap.buffer.Size() == 0 {
		return 0
	}
	ap.buffer.LogBatchProcessing(ap.cfg.Topic)
	batch := ap.buffer.GetAndClear()

	produced := 0
	for _, ev := range batch {
		payload, err := json.Marshal(ev)
		if err != nil {
			slog.Error("[KafkaClient] Failed to encode analysis event",
				slog.String("analysis_id", ev.AnalysisID),
				slog.String("error", err.Error()))
			continue
		}

		msg := &kafka.Message{
			TopicPartition: kafka.TopicPartition{Topic: &ap.cfg.Topic, Partition: kafka.PartitionAny},
			Key:            []byte(ev.AnalysisID),
			Value:          payload,
		}
		if err := ap.producer.Produce(msg, nil); err != nil {
			slog.Error("[KafkaClient] Failed to produce analysis event",
				slog.String("analysis_id", ev.AnalysisID),
				slog.String("error", err.Error()))
			continue
		}
		produced++
	}
	return produced
}

func (ap *AnalysisPublisher) deliveryReports() {
	defer ap.wg.Done()
	for {
		select {
		case <-ap.done:
			return
		case e, ok := <-ap.producer.Events():
			if !ok {
				return
			}
			switch ev := e.(type) {
			case *kafka.Message:
				if ev.TopicPartition.Error != nil {
					slog.Error("[KafkaClient] Delivery failed",
						slog.String("key", string(ev.Key)),
						slog.String("error", ev.TopicPartition.Error.Error()))
				}
			case kafka.Error:
				slog.Warn("[KafkaClient] Producer error", slog.String("error", ev.Error()))
			}
		}
	}
}

// Close produces whatever is still buffered, waits for delivery and closes
// the producer.
func (ap *AnalysisPublisher) Close() {
	ap.closeOnce.Do(func() {
		slog.Info("[KafkaClient] Shutting down Kafka producer...")
		ap.mu.Lock()
		ap.closed = true
		ap.mu.Unlock()

		close(ap.done)
		ap.wg.Wait()

		ap.produceBatch()
		if remaining := ap.producer.Flush(int(FLUSH_TIMEOUT / time.Millisecond)); remaining > 0 {
			slog.Warn("[KafkaClient] Not all messages were delivered before shutdown",
				slog.Int("remaining", remaining))
		}
		ap.producer.Close()
		slog.Info("[KafkaClient] Kafka producer shut down")
	})
}
