package redis

import (
	"context"
	"time"

	rd "github.com/redis/go-redis/v9"
)

// luaReleasePayoutLockIfMatch 仅当锁值匹配本次 token 时才删除，避免误删后来者的锁。
const luaReleasePayoutLockIfMatch = `
local lockKey = KEYS[1]
local token = ARGV[1]
if redis.call('GET', lockKey) == token then
  return redis.call('DEL', lockKey)
end
return 0
`

// AcquirePayoutLock 以 SETNX 语义抢某卖家的打款锁。
// 返回 false 表示已有打款在进行；TTL 防止崩溃后死锁。
func AcquirePayoutLock(ctx context.Context, rdb *rd.Client, sellerID uint, token string, ttl time.Duration) (bool, error) {
	return rdb.SetNX(ctx, PayoutLockKey(sellerID), token, ttl).Result()
}

// ReleasePayoutLock 安全释放打款锁（token 不匹配不删）。
func ReleasePayoutLock(ctx context.Context, rdb *rd.Client, sellerID uint, token string) error {
	_, err := rdb.Eval(ctx, luaReleasePayoutLockIfMatch, []string{PayoutLockKey(sellerID)}, token).Int()
	return err
}
