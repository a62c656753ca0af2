package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/LavaJover/shvark-billing-service/internal/config"
	"github.com/google/uuid"
	"github.com/mediocregopher/radix/v3"
	"go.uber.org/zap"
)

// releaseScript deletes the key only while it still holds our token, so an
// expired lock re-taken by someone else is never released by us.
var releaseScript = radix.NewEvalScript(1, `
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type Locker struct {
	client radix.Client
	logger *zap.Logger
}

func NewPool(cfg config.Redis) (*radix.Pool, error) {
	pool, err := radix.NewPool("tcp", cfg.Addr, cfg.PoolSize)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Addr, err)
	}
	return pool, nil
}

func NewLocker(client radix.Client, logger *zap.Logger) *Locker {
	return &Locker{client: client, logger: logger}
}

func (l *Locker) TryLock(ctx context.Context, key string, ttl time.Duration) (func(), bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	token := uuid.NewString()
	var reply string
	mn := radix.MaybeNil{Rcv: &reply}
	err := l.client.Do(radix.Cmd(&mn, "SET", key, token, "NX", "PX", strconv.FormatInt(ttl.Milliseconds(), 10)))
	if err != nil {
		return nil, false, fmt.Errorf("redis lock %s: %w", key, err)
	}
	if mn.Nil {
		return nil, false, nil
	}

	unlock := func() {
		var released int
		if err := l.client.Do(releaseScript.Cmd(&released, key, token)); err != nil {
			l.logger.Warn("failed to release lock", zap.String("key", key), zap.Error(err))
		}
	}
	return unlock, true, nil
}
