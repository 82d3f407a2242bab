package config

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"os"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
)

var (
	rdb    *redis.Client
	locker *redislock.Client
)

func GetRedisDB() *redis.Client {
	return rdb
}

func GetRedisLock() *redislock.Client {
	return locker
}

// SetRedisDB installs an already connected client (tests and tools).
func SetRedisDB(client *redis.Client) {
	rdb = client
	if client != nil {
		locker = redislock.New(client)
	} else {
		locker = nil
	}
}

func GetRedisObject(ctx context.Context, key string, dest interface{}) (bool, error) {
	if rdb == nil {
		return false, nil
	}
	val, err := rdb.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}
	if err = json.Unmarshal([]byte(val), dest); err != nil {
		return false, err
	}
	return true, nil
}

func SetRedisObject(ctx context.Context, key string, obj interface{}, exp time.Duration) error {
	if rdb == nil {
		return nil
	}
	objInByte, err := json.Marshal(obj)
	if err != nil {
		return err
	}
	return rdb.Set(ctx, key, objInByte, exp).Err()
}

// store key in a set for faster adding & retrieving
func AddRedisSet(ctx context.Context, setKey string, member string) error {
	if rdb == nil {
		return nil
	}
	return rdb.SAdd(ctx, setKey, member).Err()
}

func GetRedisSetMembers(ctx context.Context, setKey string) ([]string, error) {
	if rdb == nil {
		return nil, nil
	}
	return rdb.SMembers(ctx, setKey).Result()
}

func RemoveRedisKey(ctx context.Context, keys ...string) error {
	if rdb == nil || len(keys) == 0 {
		return nil
	}
	_, err := rdb.Del(ctx, keys...).Result()
	return err
}

// ConnectRedisWithRetry connects and sets the global Redis client + lock client.
// Call this from main() AFTER the HTTP server is listening.
func ConnectRedisWithRetry(ctx context.Context) {
	redisAddr := os.Getenv("REDIS_ADDRESS")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
		log.Printf("REDIS_ADDRESS not set; defaulting to %s", redisAddr)
	}

	var attempt int
	for {
		attempt++
		client := redis.NewClient(&redis.Options{
			Addr:     redisAddr,
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       0, // use default DB
			PoolSize: 50,
		})
		err := client.Ping(ctx).Err()
		if err == nil {
			SetRedisDB(client)
			log.Printf("connected to redis (attempt=%d addr=%s)", attempt, redisAddr)
			return
		}
		_ = client.Close()
		sleep := backoff(attempt)
		log.Printf("failed to connect redis (attempt=%d addr=%s): %v; retrying in %s", attempt, redisAddr, err, sleep)
		select {
		case <-ctx.Done():
			return
		case <-time.After(sleep):
		}
	}
}
