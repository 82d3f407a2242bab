package utils

import (
	"context"
	"reflect"
	"time"

	"github.com/mmdatafocus/shop_console/config"
)

/* generic functions */

func GetTypeName[T any]() string {
	var v T
	typeOfT := reflect.TypeOf(v)
	return typeOfT.Name()
}

func redisKey[T any](id string) string {
	return GetTypeName[T]() + ":" + id
}

/* Redis */

// store instance under <TypeName>:<id>
func StoreRedis[T any](ctx context.Context, id string, obj *T, exp time.Duration) error {
	return config.SetRedisObject(ctx, redisKey[T](id), obj, exp)
}

// returns nil, nil when the key does not exist
func RetrieveRedis[T any](ctx context.Context, id string) (*T, error) {
	var obj T
	exists, err := config.GetRedisObject(ctx, redisKey[T](id), &obj)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, nil
	}
	return &obj, nil
}

func RemoveRedisItem[T any](ctx context.Context, id string) error {
	return config.RemoveRedisKey(ctx, redisKey[T](id))
}
