package usage

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const metricsTTL = 7 * 24 * time.Hour

type Store struct {
	redis *redis.Client
}

func NewStore(redisClient *redis.Client) *Store {
	return &Store{redis: redisClient}
}

func currentKey() string {
	now := time.Now().UTC()
	return MetricsRedisKey(now.Format("2006-01-02"), now.Hour())
}

func (s *Store) IncrementMetric(ctx context.Context, field string, value int64) error {
	key := currentKey()

	pipe := s.redis.Pipeline()
	pipe.HIncrBy(ctx, key, field, value)
	pipe.Expire(ctx, key, metricsTTL)
	_, err := pipe.Exec(ctx)
	return err
}

func (s *Store) IncrementSessions(ctx context.Context) error {
	return s.IncrementMetric(ctx, FieldSessions, 1)
}

func (s *Store) IncrementPlays(ctx context.Context) error {
	return s.IncrementMetric(ctx, FieldPlays, 1)
}

func (s *Store) IncrementResets(ctx context.Context) error {
	return s.IncrementMetric(ctx, FieldResets, 1)
}

func (s *Store) IncrementUploads(ctx context.Context, n int64) error {
	return s.IncrementMetric(ctx, FieldUploads, n)
}

func (s *Store) IncrementRemoteErrors(ctx context.Context) error {
	return s.IncrementMetric(ctx, FieldRemoteErrors, 1)
}

// RecordTick counts one reveal tick and the words it revealed.
func (s *Store) RecordTick(ctx context.Context, words int64) error {
	key := currentKey()

	pipe := s.redis.Pipeline()
	pipe.HIncrBy(ctx, key, FieldTicks, 1)
	if words > 0 {
		pipe.HIncrBy(ctx, key, FieldWords, words)
	}
	pipe.Expire(ctx, key, metricsTTL)
	_, err := pipe.Exec(ctx)
	return err
}

func (s *Store) GetMetrics(ctx context.Context, hours int) ([]*Metrics, error) {
	now := time.Now().UTC()
	var metrics []*Metrics

	for i := 0; i < hours; i++ {
		t := now.Add(-time.Duration(i) * time.Hour)
		key := MetricsRedisKey(t.Format("2006-01-02"), t.Hour())

		data, err := s.redis.HGetAll(ctx, key).Result()
		if err != nil {
			return nil, err
		}
		if len(data) == 0 {
			continue
		}

		metrics = append(metrics, &Metrics{
			Date:         t.Format("2006-01-02"),
			Hour:         t.Hour(),
			Sessions:     parseField(data, FieldSessions),
			Plays:        parseField(data, FieldPlays),
			Resets:       parseField(data, FieldResets),
			Ticks:        parseField(data, FieldTicks),
			Words:        parseField(data, FieldWords),
			Uploads:      parseField(data, FieldUploads),
			RemoteErrors: parseField(data, FieldRemoteErrors),
		})
	}

	return metrics, nil
}

func (s *Store) GetMetricsForLast7Days(ctx context.Context) ([]*Metrics, error) {
	return s.GetMetrics(ctx, 7*24)
}

func parseField(data map[string]string, field string) int64 {
	v, ok := data[field]
	if !ok {
		return 0
	}
	n, _ := strconv.ParseInt(v, 10, 64)
	return n
}
