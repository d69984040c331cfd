package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/bartab/backend/internal/models"
	"github.com/go-redis/redis/v8"
)

// putScript writes the document only if the stored version still matches.
// KEYS[1] record key, KEYS[2] index set; ARGV[1] document, ARGV[2] expected
// version, ARGV[3] id.
const putScript = `
local cur = redis.call('GET', KEYS[1])
if cur then
	local doc = cjson.decode(cur)
	if tonumber(doc['version']) ~= tonumber(ARGV[2]) then
		return 0
	end
end
redis.call('SET', KEYS[1], ARGV[1])
redis.call('SADD', KEYS[2], ARGV[3])
return 1
`

// RedisStore keeps one JSON document per customer plus a set of known ids.
type RedisStore struct {
	client *redis.Client
	prefix string
	now    func() time.Time
}

func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "bartab"
	}
	return &RedisStore{client: client, prefix: prefix, now: time.Now}
}

func (s *RedisStore) customerKey(id string) string {
	return fmt.Sprintf("%s:customer:%s", s.prefix, id)
}

func (s *RedisStore) indexKey() string {
	return s.prefix + ":customers"
}

func (s *RedisStore) Put(ctx context.Context, rec *models.CustomerRecord) error {
	next := rec.Clone()
	next.Version = rec.Version + 1
	next.UpdatedAt = s.now().UTC()
	if next.CreatedAt.IsZero() {
		next.CreatedAt = next.UpdatedAt
	}

	data, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("encode customer %s: %w", rec.ID, err)
	}

	applied, err := s.client.Eval(ctx, putScript,
		[]string{s.customerKey(rec.ID), s.indexKey()},
		string(data), rec.Version, rec.ID).Int()
	if err != nil {
		return unavailable("put", err)
	}
	if applied == 0 {
		return ErrVersionConflict
	}

	rec.Version = next.Version
	rec.UpdatedAt = next.UpdatedAt
	rec.CreatedAt = next.CreatedAt
	return nil
}

func (s *RedisStore) GetAll(ctx context.Context) ([]models.CustomerRecord, error) {
	ids, err := s.client.SMembers(ctx, s.indexKey()).Result()
	if err != nil {
		return nil, unavailable("get all", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.customerKey(id)
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, unavailable("get all", err)
	}

	customers := make([]models.CustomerRecord, 0, len(values))
	for _, v := range values {
		// ids removed between SMEMBERS and MGET come back as nil
		doc, ok := v.(string)
		if !ok {
			continue
		}
		var rec models.CustomerRecord
		if err := json.Unmarshal([]byte(doc), &rec); err != nil {
			return nil, fmt.Errorf("decode customer: %w", err)
		}
		customers = append(customers, rec)
	}
	return customers, nil
}

func (s *RedisStore) GetByID(ctx context.Context, id string) (*models.CustomerRecord, error) {
	data, err := s.client.Get(ctx, s.customerKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, unavailable("get", err)
	}

	var rec models.CustomerRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode customer %s: %w", id, err)
	}
	return &rec, nil
}

// Delete removes the document first; GetAll skips indexed ids whose document
// is already gone.
func (s *RedisStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, s.customerKey(id)).Err(); err != nil {
		return unavailable("delete", err)
	}
	if err := s.client.SRem(ctx, s.indexKey(), id).Err(); err != nil {
		return unavailable("delete", err)
	}
	return nil
}

func (s *RedisStore) ClearAll(ctx context.Context) error {
	ids, err := s.client.SMembers(ctx, s.indexKey()).Result()
	if err != nil {
		return unavailable("clear", err)
	}

	keys := make([]string, 0, len(ids)+1)
	for _, id := range ids {
		keys = append(keys, s.customerKey(id))
	}
	keys = append(keys, s.indexKey())
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return unavailable("clear", err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
