package cache

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"shopreviews/pkg/metrics"
	"shopreviews/reviews-service/internal/app/reviews/schema"

	"github.com/redis/go-redis/v9"
)

const (
	serviceName = "reviews-service"
	keyPrefix   = "view"
	scanBatch   = 100

	// счетчик поколений кеша, лежит вне view:*, чтобы Invalidate его не удалял
	generationKey = "view-generation"
)

// ViewCache хранит готовые JSON представления в Redis.
// Ключи: view:<kind>:<id> для одной сущности и view:<kind>:all для списка
type ViewCache struct {
	client *redis.Client
	ttl    time.Duration
}

// Connect создает клиента Redis и проверяет соединение
func Connect(addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return client, nil
}

func NewViewCache(client *redis.Client, ttl time.Duration) *ViewCache {
	return &ViewCache{client: client, ttl: ttl}
}

var errStaleGeneration = errors.New("cache generation changed")

func Key(kind string, id int64) string {
	return keyPrefix + ":" + kind + ":" + strconv.FormatInt(id, 10)
}

func ListKey(kind string) string {
	return keyPrefix + ":" + kind + ":all"
}

// Get возвращает представление сущности. Промах - (nil, false, nil).
// Числа декодируются как json.Number, чтобы id и цены не теряли точность
func (c *ViewCache) Get(ctx context.Context, key string) (schema.View, bool, error) {
	var view schema.View
	ok, err := c.get(ctx, key, &view)
	if !ok || err != nil {
		return nil, ok, err
	}
	return view, true, nil
}

func (c *ViewCache) GetList(ctx context.Context, key string) ([]schema.View, bool, error) {
	var views []schema.View
	ok, err := c.get(ctx, key, &views)
	if !ok || err != nil {
		return nil, ok, err
	}
	if views == nil {
		views = []schema.View{}
	}
	return views, true, nil
}

// Generation возвращает текущее поколение кеша. Читатель берет его до загрузки из БД
// и передает в Set, чтобы не записать устаревшее представление после Invalidate
func (c *ViewCache) Generation(ctx context.Context) (int64, error) {
	timer := metrics.NewRedisTimer(serviceName, metrics.RedisOpGet)
	gen, err := c.client.Get(ctx, generationKey).Int64()
	timer.ObserveDuration()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		metrics.RecordRedisError(serviceName, metrics.RedisOpGet)
		return 0, fmt.Errorf("failed to get cache generation: %w", err)
	}
	return gen, nil
}

// Set сохраняет представление, только если поколение не сменилось с момента gen.
// Устаревшая запись молча пропускается
func (c *ViewCache) Set(ctx context.Context, key string, value interface{}, gen int64) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal view: %w", err)
	}

	timer := metrics.NewRedisTimer(serviceName, metrics.RedisOpSet)
	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, generationKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != gen {
			return errStaleGeneration
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, c.ttl)
			return nil
		})
		return err
	}, generationKey)
	timer.ObserveDuration()

	if errors.Is(err, errStaleGeneration) || errors.Is(err, redis.TxFailedErr) {
		return nil
	}
	if err != nil {
		metrics.RecordRedisError(serviceName, metrics.RedisOpSet)
		return fmt.Errorf("failed to set view in cache: %w", err)
	}

	return nil
}

// Invalidate удаляет все view:* ключи. Любая запись может поменять вложенные
// представления других сущностей, поэтому точечная очистка не используется
func (c *ViewCache) Invalidate(ctx context.Context) error {
	// сначала новое поколение: читатели, начавшие загрузку раньше, уже ничего не запишут
	timer := metrics.NewRedisTimer(serviceName, metrics.RedisOpSet)
	err := c.client.Incr(ctx, generationKey).Err()
	timer.ObserveDuration()
	if err != nil {
		metrics.RecordRedisError(serviceName, metrics.RedisOpSet)
		return fmt.Errorf("failed to bump cache generation: %w", err)
	}

	var cursor uint64
	for {
		timer := metrics.NewRedisTimer(serviceName, metrics.RedisOpScan)
		keys, next, err := c.client.Scan(ctx, cursor, keyPrefix+":*", scanBatch).Result()
		timer.ObserveDuration()
		if err != nil {
			metrics.RecordRedisError(serviceName, metrics.RedisOpScan)
			return fmt.Errorf("failed to scan cache keys: %w", err)
		}

		if len(keys) > 0 {
			timer = metrics.NewRedisTimer(serviceName, metrics.RedisOpDel)
			err = c.client.Del(ctx, keys...).Err()
			timer.ObserveDuration()
			if err != nil {
				metrics.RecordRedisError(serviceName, metrics.RedisOpDel)
				return fmt.Errorf("failed to delete cache keys: %w", err)
			}
		}

		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}

func (c *ViewCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *ViewCache) Close() error {
	return c.client.Close()
}

func (c *ViewCache) get(ctx context.Context, key string, out interface{}) (bool, error) {
	prefix := metricPrefix(key)

	timer := metrics.NewRedisTimer(serviceName, metrics.RedisOpGet)
	data, err := c.client.Get(ctx, key).Bytes()
	timer.ObserveDuration()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			metrics.RecordCacheMiss(serviceName, prefix)
			return false, nil
		}
		metrics.RecordRedisError(serviceName, metrics.RedisOpGet)
		return false, fmt.Errorf("failed to get view from cache: %w", err)
	}

	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()
	if err := decoder.Decode(out); err != nil {
		return false, fmt.Errorf("failed to unmarshal view: %w", err)
	}

	metrics.RecordCacheHit(serviceName, prefix)
	return true, nil
}

// metricPrefix обрезает id, чтобы метки метрик не росли вместе с числом сущностей
func metricPrefix(key string) string {
	if idx := strings.LastIndex(key, ":"); idx > 0 {
		return key[:idx]
	}
	return key
}
