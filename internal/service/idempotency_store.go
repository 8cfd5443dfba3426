package service

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
)

// IdempotencyStore 记录 Idempotency-Key 对应的已创建课程。
// Reserve 原子地占用 key：reserved 为 true 表示调用方持有它；
// 否则 courseID 是已创建的课程，为 0 表示另一个请求仍在处理。
type IdempotencyStore interface {
	Reserve(ctx context.Context, subject, key string) (courseID uint, reserved bool, err error)
	Remember(ctx context.Context, subject, key string, courseID uint) error
	Release(ctx context.Context, subject, key string) error
}

type RedisIdempotencyStore struct {
	Redis *redis.Client
	TTL   time.Duration
}

func NewRedisIdempotencyStore(rdb *redis.Client, ttl time.Duration) *RedisIdempotencyStore {
	return &RedisIdempotencyStore{Redis: rdb, TTL: ttl}
}

const (
	// 处理中的占位值
	pendingCourseID = 0
	// 占位的存活时间，进程崩溃后 key 不会长期卡在处理中
	reservationTTL = 2 * time.Minute
)

// 键按 subject 隔离，不同用户的相同 key 互不影响
func idempotencyKey(subject, key string) string {
	return "course_ingest:" + subject + ":" + key
}

func (s *RedisIdempotencyStore) Reserve(ctx context.Context, subject, key string) (uint, bool, error) {
	redisKey := idempotencyKey(subject, key)
	ok, err := s.Redis.SetNX(ctx, redisKey, pendingCourseID, reservationTTL).Result()
	if err != nil {
		return 0, false, err
	}
	if ok {
		return 0, true, nil
	}

	val, err := s.Redis.Get(ctx, redisKey).Uint64()
	if errors.Is(err, redis.Nil) {
		// 占位刚好过期或被释放，再抢一次
		ok, err = s.Redis.SetNX(ctx, redisKey, pendingCourseID, reservationTTL).Result()
		return 0, ok, err
	}
	if err != nil {
		return 0, false, err
	}
	return uint(val), false, nil
}

func (s *RedisIdempotencyStore) Remember(ctx context.Context, subject, key string, courseID uint) error {
	return s.Redis.Set(ctx, idempotencyKey(subject, key), courseID, s.TTL).Err()
}

func (s *RedisIdempotencyStore) Release(ctx context.Context, subject, key string) error {
	return s.Redis.Del(ctx, idempotencyKey(subject, key)).Err()
}
