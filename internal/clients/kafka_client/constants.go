package kafka_client

import "time"

const (
	KAFKA_TOPIC_ANALYSIS_RESULTS = "text-analysis-results" // one event per completed analysis
)

const (
	BATCH_SIZE    = 50
	BATCH_TIMEOUT = 5 * time.Second
	FLUSH_TIMEOUT = 5 * time.Second
	PRODUCER_ID   = "sentilens-analyzer"
)
