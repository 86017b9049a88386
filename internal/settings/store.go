package settings

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	DefaultVolume = 80
	MinVolume     = 0
	MaxVolume     = 100

	preferencesTTL = 90 * 24 * time.Hour
)

var ErrInvalidVolume = errors.New("volume must be between 0 and 100")

type Preferences struct {
	ClientID string `json:"client_id"`
	Volume   int    `json:"volume"`
}

func RedisKey(clientID string) string {
	return "settings:" + clientID + ":volume"
}

type Store struct {
	redis *redis.Client
}

func NewStore(redisClient *redis.Client) *Store {
	return &Store{redis: redisClient}
}

// Get returns the stored volume, or the default when none was saved.
func (s *Store) Get(ctx context.Context, clientID string) (*Preferences, error) {
	v, err := s.redis.Get(ctx, RedisKey(clientID)).Result()
	if err == redis.Nil {
		return &Preferences{ClientID: clientID, Volume: DefaultVolume}, nil
	}
	if err != nil {
		return nil, err
	}

	volume, err := strconv.Atoi(v)
	if err != nil || volume < MinVolume || volume > MaxVolume {
		return &Preferences{ClientID: clientID, Volume: DefaultVolume}, nil
	}
	return &Preferences{ClientID: clientID, Volume: volume}, nil
}

func (s *Store) SetVolume(ctx context.Context, clientID string, volume int) (*Preferences, error) {
	if volume < MinVolume || volume > MaxVolume {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidVolume, volume)
	}
	if err := s.redis.Set(ctx, RedisKey(clientID), volume, preferencesTTL).Err(); err != nil {
		return nil, err
	}
	return &Preferences{ClientID: clientID, Volume: volume}, nil
}
