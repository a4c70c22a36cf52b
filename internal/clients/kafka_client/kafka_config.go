package kafka_client

import "time"

type KafkaConfig struct {
	Broker        string
	Topic         string
	BatchSize     int
	BatchInterval time.Duration
}

// Normalize fills unset fields with package defaults.
func (c KafkaConfig) Normalize() KafkaConfig {
	if c.Topic == "" {
		c.Topic = KAFKA_TOPIC_ANALYSIS_RESULTS
	}
	if c.BatchSize <= 0 {
		c.BatchSize = BATCH_SIZE
	}
	if c.BatchInterval <= 0 {
		c.BatchInterval = BATCH_TIMEOUT
	}
	return c
}
