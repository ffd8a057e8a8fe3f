package history

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/petrijr/nodeflow/pkg/api"
)

// RedisStore stores run events in Redis.
// It uses a simple key structure:
//
//	<prefix>run:<id>     => LIST of JSON-encoded events, in append order
//	<prefix>runs         => LIST of run IDs, in first-seen order
//	<prefix>runs:seen    => SET of run IDs, guards the runs list
type RedisStore struct {
	client *redis.Client
	prefix string
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore creates a RedisStore.
// prefix is optional but recommended (e.g. "nodeflow:").
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "nodeflow:"
	}
	return &RedisStore{
		client: client,
		prefix: prefix,
	}
}

func (s *RedisStore) keyRun(id string) string {
	return s.prefix + "run:" + id
}

func (s *RedisStore) keyRuns() string {
	return s.prefix + "runs"
}

func (s *RedisStore) keySeen() string {
	return s.prefix + "runs:seen"
}

// appendScript pushes the event first so a failing push leaves the run
// index untouched. Then it lists the run ID if the seen-set did not have it.
//
//	KEYS[1] run events list, KEYS[2] runs list, KEYS[3] seen-set
//	ARGV[1] run ID, ARGV[2] JSON event
var appendScript = redis.NewScript(`
redis.call('RPUSH', KEYS[1], ARGV[2])
if redis.call('SADD', KEYS[3], ARGV[1]) == 1 then
	redis.call('RPUSH', KEYS[2], ARGV[1])
end
return 1
`)

func (s *RedisStore) Append(ctx context.Context, ev api.RunEvent) error {
	if ev.At.IsZero() {
		ev.At = time.Now()
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	keys := []string{s.keyRun(ev.RunID), s.keyRuns(), s.keySeen()}
	return appendScript.Run(ctx, s.client, keys, ev.RunID, string(payload)).Err()
}

func (s *RedisStore) List(ctx context.Context, runID string) ([]api.RunEvent, error) {
	raw, err := s.client.LRange(ctx, s.keyRun(runID), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	out := make([]api.RunEvent, 0, len(raw))
	for _, r := range raw {
		var ev api.RunEvent
		if err := json.Unmarshal([]byte(r), &ev); err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, nil
}

func (s *RedisStore) Runs(ctx context.Context) ([]string, error) {
	return s.client.LRange(ctx, s.keyRuns(), 0, -1).Result()
}
