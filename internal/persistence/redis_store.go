package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/petrijr/flowkit/pkg/api"
)

// RedisFlowStore is a FlowStore backed by Redis.
// It uses a simple key structure:
//
//	<prefix>flow:<id>   => JSON-encoded flow document
//	<prefix>idx:flows   => ZSET of flow IDs scored by creation time (ms)
//
// The index is always updated together with the document in one
// transaction pipeline.
type RedisFlowStore struct {
	client *redis.Client
	prefix string
	now    func() time.Time
}

var _ FlowStore = (*RedisFlowStore)(nil)

// NewRedisFlowStore creates a RedisFlowStore.
// prefix is optional but recommended (e.g. "flowkit:").
func NewRedisFlowStore(client *redis.Client, prefix string) *RedisFlowStore {
	if prefix == "" {
		prefix = "flowkit:"
	}
	return &RedisFlowStore{
		client: client,
		prefix: prefix,
		now:    time.Now,
	}
}

func (s *RedisFlowStore) keyFlow(id string) string {
	return s.prefix + "flow:" + id
}

func (s *RedisFlowStore) keyIndex() string {
	return s.prefix + "idx:flows"
}

func (s *RedisFlowStore) ListFlows(ctx context.Context) ([]*api.Flow, error) {
	ids, err := s.client.ZRange(ctx, s.keyIndex(), 0, -1).Result()
	if err != nil {
		return nil, unavailable(err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.keyFlow(id)
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, unavailable(err)
	}

	flows := make([]*api.Flow, 0, len(values))
	for _, v := range values {
		raw, ok := v.(string)
		if !ok {
			// Index entry without a document; skip it.
			continue
		}
		f, err := DecodeFlow([]byte(raw))
		if err != nil {
			return nil, err
		}
		flows = append(flows, f)
	}
	sortFlows(flows)
	return flows, nil
}

func (s *RedisFlowStore) FetchFlow(ctx context.Context, id string) (*api.Flow, error) {
	raw, err := s.client.Get(ctx, s.keyFlow(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, unavailable(err)
	}
	return DecodeFlow(raw)
}

func (s *RedisFlowStore) CreateFlow(ctx context.Context, name string) (*api.Flow, error) {
	f, err := newFlow(name, s.now())
	if err != nil {
		return nil, err
	}
	data, err := EncodeFlow(f)
	if err != nil {
		return nil, err
	}

	_, err = s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, s.keyFlow(f.ID), data, 0)
		p.ZAdd(ctx, s.keyIndex(), redis.Z{Score: float64(f.CreatedAt.UnixMilli()), Member: f.ID})
		return nil
	})
	if err != nil {
		return nil, unavailable(err)
	}
	return f, nil
}

// PersistFlow uses WATCH on the document key so a concurrent delete is not
// resurrected by a late write.
func (s *RedisFlowStore) PersistFlow(ctx context.Context, id string, attrs api.FlowAttributes) (*api.Flow, error) {
	key := s.keyFlow(id)
	var updated *api.Flow

	err := s.client.Watch(ctx, func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return notFound(id)
		}
		if err != nil {
			return unavailable(err)
		}
		current, err := DecodeFlow(raw)
		if err != nil {
			return err
		}

		updated = applyAttributes(current, attrs, s.now())
		data, err := EncodeFlow(updated)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.Set(ctx, key, data, 0)
			return nil
		})
		return unavailable(err)
	}, key)
	if err != nil {
		return nil, unavailable(err)
	}
	return updated, nil
}

func (s *RedisFlowStore) DeleteFlow(ctx context.Context, id string) error {
	var del *redis.IntCmd
	_, err := s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.ZRem(ctx, s.keyIndex(), id)
		del = p.Del(ctx, s.keyFlow(id))
		return nil
	})
	if err != nil {
		return unavailable(err)
	}
	if del.Val() == 0 {
		return notFound(id)
	}
	return nil
}
