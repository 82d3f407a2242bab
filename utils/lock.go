package utils

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/mmdatafocus/shop_console/config"
)

// ErrSubmissionInProgress is returned while another submission holds the same lock.
var ErrSubmissionInProgress = errors.New("a submission is already in progress")

// SubmissionLock serializes submissions sharing lockType+owner across console instances.
// The returned release func is safe to call when no lock was taken (redis not connected).
func SubmissionLock(ctx context.Context, lockType string, owner string, moduleName string, functionName string) (func(), error) {
	logger := config.GetLogger()
	locker := config.GetRedisLock()
	if locker == nil {
		return func() {}, nil
	}
	lockKey := fmt.Sprintf("lock:%s:%s", lockType, owner)
	lock, err := locker.Obtain(ctx, lockKey, 30*time.Second, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		config.LogError(logger, moduleName, functionName, "Could not obtain submission lock", lockKey, err)
		return nil, ErrSubmissionInProgress
	} else if err != nil {
		config.LogError(logger, moduleName, functionName, "Error obtaining submission lock", lockKey, err)
		return nil, err
	}
	return func() {
		// the request context may already be done
		if err := lock.Release(context.Background()); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			config.LogError(logger, moduleName, functionName, "Release submission lock", lockKey, err)
		}
	}, nil
}
