// Package redis keeps the history as one JSON array under a single key, the
// same layout the browser version kept in local storage.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"bpmonitor/internal/model"

	goredis "github.com/redis/go-redis/v9"
)

const maxAppendRetries = 5

// HistoryRepository implements repository.HistoryRepository on Redis.
type HistoryRepository struct {
	client *goredis.Client
	key    string
}

// New connects to redisURL and checks the connection.
func New(ctx context.Context, redisURL, key string) (*HistoryRepository, error) {
	opt, err := goredis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	client := goredis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return NewHistoryRepository(client, key), nil
}

func NewHistoryRepository(client *goredis.Client, key string) *HistoryRepository {
	return &HistoryRepository{client: client, key: key}
}

func (r *HistoryRepository) Load(ctx context.Context) ([]model.HistoryRecord, error) {
	data, err := r.client.Get(ctx, r.key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return []model.HistoryRecord{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}
	return decodeHistory(data)
}

// Append adds rec with an optimistic transaction on the history key.
func (r *HistoryRepository) Append(ctx context.Context, rec model.HistoryRecord) error {
	txf := func(tx *goredis.Tx) error {
		records := []model.HistoryRecord{}
		data, err := tx.Get(ctx, r.key).Bytes()
		switch {
		case errors.Is(err, goredis.Nil):
		case err != nil:
			return err
		default:
			if records, err = decodeHistory(data); err != nil {
				return err
			}
		}

		for _, existing := range records {
			if existing.T == rec.T {
				return fmt.Errorf("record t=%d already exists", rec.T)
			}
		}

		payload, err := encodeHistory(append(records, rec))
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
			pipe.Set(ctx, r.key, payload, 0)
			return nil
		})
		return err
	}

	for i := 0; i < maxAppendRetries; i++ {
		err := r.client.Watch(ctx, txf, r.key)
		if errors.Is(err, goredis.TxFailedErr) {
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to append history record: %w", err)
		}
		return nil
	}
	return fmt.Errorf("failed to append history record: too much contention on %s", r.key)
}

func (r *HistoryRepository) Replace(ctx context.Context, records []model.HistoryRecord) error {
	payload, err := encodeHistory(records)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, r.key, payload, 0).Err(); err != nil {
		return fmt.Errorf("failed to write history: %w", err)
	}
	return nil
}

func (r *HistoryRepository) Clear(ctx context.Context) error {
	if err := r.client.Del(ctx, r.key).Err(); err != nil {
		return fmt.Errorf("failed to delete history: %w", err)
	}
	return nil
}

func (r *HistoryRepository) Close() error {
	return r.client.Close()
}

// encodeHistory writes records ordered by t.
func encodeHistory(records []model.HistoryRecord) ([]byte, error) {
	sorted := append([]model.HistoryRecord(nil), records...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].T < sorted[j].T })
	if sorted == nil {
		sorted = []model.HistoryRecord{}
	}
	data, err := json.Marshal(sorted)
	if err != nil {
		return nil, fmt.Errorf("failed to encode history: %w", err)
	}
	return data, nil
}

func decodeHistory(data []byte) ([]model.HistoryRecord, error) {
	records := []model.HistoryRecord{}
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to decode history: %w", err)
	}
	sort.SliceStable(records, func(i, j int) bool { return records[i].T < records[j].T })
	return records, nil
}
