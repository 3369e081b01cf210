package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	// MaxRetries is how many times a failed job is re-enqueued before
	// it lands on the dead letter list.
	MaxRetries = 3

	deadLetterSuffix = ":dead"
)

// Job is the envelope stored on the Redis list.
type Job struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	Attempts  int             `json:"attempts"`
	CreatedAt time.Time       `json:"created_at"`
}

// Queue is a Redis-list backed job queue. Producers push with Enqueue,
// a single worker loop consumes with Dequeue.
type Queue struct {
	client *redis.Client
	key    string
}

func New(client *redis.Client, key string) *Queue {
	return &Queue{client: client, key: key}
}

// Enqueue marshals payload into a Job and pushes it to the tail of the list.
func (q *Queue) Enqueue(ctx context.Context, jobType string, payload interface{}) (string, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}

	job := Job{
		ID:        uuid.NewString(),
		Type:      jobType,
		Payload:   raw,
		CreatedAt: time.Now().UTC(),
	}

	data, err := json.Marshal(job)
	if err != nil {
		return "", fmt.Errorf("marshal job: %w", err)
	}

	if err := q.client.RPush(ctx, q.key, data).Err(); err != nil {
		return "", fmt.Errorf("rpush: %w", err)
	}
	return job.ID, nil
}

// Dequeue blocks up to timeout waiting for the next job. A nil job with
// a nil error means the wait timed out.
func (q *Queue) Dequeue(ctx context.Context, timeout time.Duration) (*Job, error) {
	res, err := q.client.BLPop(ctx, timeout, q.key).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("blpop: %w", err)
	}
	if len(res) < 2 {
		return nil, fmt.Errorf("unexpected blpop reply of %d elements", len(res))
	}

	var job Job
	if err := json.Unmarshal([]byte(res[1]), &job); err != nil {
		return nil, fmt.Errorf("unmarshal job: %w", err)
	}
	return &job, nil
}

// Retry re-enqueues the job after a failure, or moves it to the dead
// letter list once MaxRetries is exhausted.
func (q *Queue) Retry(ctx context.Context, job *Job) error {
	job.Attempts++

	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}

	if job.Attempts >= MaxRetries {
		return q.client.RPush(ctx, q.key+deadLetterSuffix, data).Err()
	}
	return q.client.RPush(ctx, q.key, data).Err()
}
