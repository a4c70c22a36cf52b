package clients

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/spacesedan/sentilens/internal/models"
	"github.com/valkey-io/valkey-go"
)

type ValkeyOptions struct {
	Address  string
	Password string
	UseTLS   bool
	TTL      time.Duration
}

// ValkeyClient caches finished analyses keyed by request fingerprint.
type ValkeyClient struct {
	Client valkey.Client
	ttl    time.Duration
}

func NewValkeyClient(ctx context.Context, o ValkeyOptions) (*ValkeyClient, error) {
	opts := valkey.ClientOption{
		InitAddress:      []string{o.Address},
		Password:         o.Password,
		ConnWriteTimeout: 5 * time.Second,
		SelectDB:         0,
	}
	if o.UseTLS {
		opts.TLSConfig = &tls.Config{InsecureSkipVerify: false}
	}

	client, err := valkey.NewClient(opts)
	if err != nil {
		return nil, fmt.Errorf("[ValkeyClient] failed to create Valkey: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Do(pingCtx, client.B().Ping().Build()).Error(); err != nil {
		client.Close()
		return nil, fmt.Errorf("[ValkeyClient] failed to ping Valkey: %w", err)
	}

	slog.Info("[ValkeyClient] Successfully connected to valkey",
		slog.String("address", o.Address))
	return &ValkeyClient{Client: client, ttl: o.TTL}, nil
}

func (vc *ValkeyClient) Close() {
	vc.Client.Close()
}

func analysisKey(key string) string {
	return VALKEY_ANALYSIS_KEY_PREFIX + key
}

// Get returns the cached analysis for key. A miss is (nil, false, nil).
func (vc *ValkeyClient) Get(ctx context.Context, key string) (*models.AnalysisResponse, bool, error) {
	raw, err := vc.Client.Do(ctx, vc.Client.B().Get().Key(analysisKey(key)).Build()).ToString()
	if valkey.IsValkeyNil(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("valkey get: %w", err)
	}

	var resp models.AnalysisResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		return nil, false, fmt.Errorf("decode cached analysis: %w", err)
	}
	return &resp, true, nil
}

func (vc *ValkeyClient) Set(ctx context.Context, key string, resp models.AnalysisResponse) error {
	payload, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("encode analysis: %w", err)
	}

	fullKey := analysisKey(key)
	completed := []valkey.Completed{
		vc.Client.B().Set().Key(fullKey).Value(string(payload)).Build(),
		vc.Client.B().Expire().Key(fullKey).Seconds(ttlSeconds(vc.ttl)).Build(),
	}
	for _, res := range vc.Client.DoMulti(ctx, completed...) {
		if err := res.Error(); err != nil {
			return fmt.Errorf("valkey set: %w", err)
		}
	}

	slog.Debug("[ValkeyClient] Cached analysis", slog.String("key", fullKey))
	return nil
}

func (vc *ValkeyClient) Ping(ctx context.Context) error {
	return vc.Client.Do(ctx, vc.Client.B().Ping().Build()).Error()
}

func ttlSeconds(ttl time.Duration) int64 {
	if s := int64(ttl / time.Second); s > 0 {
		return s
	}
	return 1
}
