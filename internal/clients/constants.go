package clients

const (
	USER_AGENT = "sentilens-client/1.0 (+https://github.com/spacesedan/sentilens)"

	VALKEY_ANALYSIS_KEY_PREFIX = "sentilens:analysis:"
)
