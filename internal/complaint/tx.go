package complaint

import (
	"context"
	"sync"
	"time"

	dErrors "redressal/pkg/domain-errors"
)

// StoreTx provides the transactional boundary for complaint mutations. The
// scope key names the contended resource: the submitter ID for creations
// (the active-complaint cap is per submitter) and the complaint ID for
// per-record transitions. Implementations must guarantee that two units of
// work sharing a scope never interleave.
//
// Implementations may wrap a database transaction or, in-memory, a lock.
type StoreTx interface {
	RunInTx(ctx context.Context, scope string, fn func(ctx context.Context) error) error
}

// shardedTx provides fine-grained locking using sharded mutexes. Operations
// are distributed across N shards by a hash of the scope key, so unrelated
// submitters and complaints rarely contend while conflicting writers always
// serialize.
const numTxShards = 128

// defaultTxTimeout bounds how long a unit of work may hold its shard.
const defaultTxTimeout = 5 * time.Second

type shardedTx struct {
	shards  [numTxShards]sync.Mutex
	timeout time.Duration
}

// NewInMemoryTx returns a lock-based StoreTx for in-memory stores.
func NewInMemoryTx() StoreTx {
	return &shardedTx{}
}

func (t *shardedTx) RunInTx(ctx context.Context, scope string, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	timeout := t.timeout
	if timeout == 0 {
		timeout = defaultTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	shard := hashScope(scope) % numTxShards
	t.shards[shard].Lock()
	defer t.shards[shard].Unlock()

	// Check again after acquiring the lock: a writer that waited past the
	// deadline must not run at all.
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	return fn(ctx)
}

// hashScope uses FNV-1a for even shard distribution.
func hashScope(s string) uint32 {
	const (
		fnvOffset = 2166136261
		fnvPrime  = 16777619
	)
	h := uint32(fnvOffset)
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= fnvPrime
	}
	return h
}
