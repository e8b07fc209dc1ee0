package store

import (
	"context"
	"fmt"
	"time"
)

// claimTTL bounds how long a claim survives an unreleased/crashed holder,
// matching hitl_checkpoint_store.go's 30s expiry-claim TTL.
const claimTTL = 30 * time.Second

func (s *RedisCheckpointStore) claimKey(id string) string {
	return fmt.Sprintf("%s:claim:%s", s.keyPrefix, id)
}

// Claim attempts to acquire exclusive processing rights over checkpoint id
// for this store's instance, via Redis SETNX+TTL — the same distributed
// claim pattern hitl_checkpoint_store.go uses so that multiple pods
// running concurrent pruning/rollback against the same checkpoint do not
// race. Returns false (not an error) if another instance already holds
// the claim.
func (s *RedisCheckpointStore) Claim(ctx context.Context, id string) (bool, error) {
	ok, err := s.client.SetNX(ctx, s.claimKey(id), s.instanceID, claimTTL).Result()
	if err != nil {
		return false, fmt.Errorf("checkpoint/store: claim %s: %w", id, err)
	}
	if ok {
		s.logger.Debug("claimed checkpoint for processing", map[string]interface{}{
			"operation":    "checkpoint.store.Claim",
			"checkpointId": id,
			"instanceId":   s.instanceID,
		})
	}
	return ok, nil
}

// releaseScript atomically releases a claim only if this instance still
// holds it, avoiding a release racing a newer holder's claim after this
// instance's claim already expired via TTL.
const releaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`

// Release releases this instance's claim over id, if held.
func (s *RedisCheckpointStore) Release(ctx context.Context, id string) error {
	if _, err := s.client.Eval(ctx, releaseScript, []string{s.claimKey(id)}, s.instanceID).Result(); err != nil {
		return fmt.Errorf("checkpoint/store: release claim %s: %w", id, err)
	}
	return nil
}

// InstanceID returns this store's distributed-claim identity.
func (s *RedisCheckpointStore) InstanceID() string {
	return s.instanceID
}
