package queue

import (
	"context"
	"fmt"

	"mediamarkt/crawler/internal/domain/task"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// Publisher appends tasks to Redis streams, one stream per task type.
type Publisher interface {
	AddTask(ctx context.Context, task task.Task) (string, error) // Returns message ID
	AddTasks(ctx context.Context, tasks []task.Task) error
}

type RedisQueue struct {
	redisClient  *redis.Client
	streamPrefix string
}

func NewRedisQueue(redisClient *redis.Client, streamPrefix string) *RedisQueue {
	return &RedisQueue{
		redisClient:  redisClient,
		streamPrefix: streamPrefix,
	}
}

func (q *RedisQueue) StreamName(taskType string) string {
	return q.streamPrefix + taskType
}

func (q *RedisQueue) AddTask(ctx context.Context, t task.Task) (string, error) {
	args, err := q.xaddArgs(t)
	if err != nil {
		return "", err
	}

	messageID, err := q.redisClient.XAdd(ctx, args).Result()
	if err != nil {
		return "", fmt.Errorf("failed to add task to Redis stream %s: %w", args.Stream, err)
	}

	log.Debugf("Added task %s to stream %s with message ID: %s", t.TaskType(), args.Stream, messageID)
	return messageID, nil
}

// AddTasks publishes tasks in one pipeline, keeping their order.
func (q *RedisQueue) AddTasks(ctx context.Context, tasks []task.Task) error {
	if len(tasks) == 0 {
		return nil
	}

	pipe := q.redisClient.Pipeline()
	for _, t := range tasks {
		args, err := q.xaddArgs(t)
		if err != nil {
			return err
		}
		pipe.XAdd(ctx, args)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to publish %d tasks: %w", len(tasks), err)
	}

	log.Debugf("Published %d tasks", len(tasks))
	return nil
}

func (q *RedisQueue) xaddArgs(t task.Task) (*redis.XAddArgs, error) {
	taskType := t.TaskType()

	taskValue, err := t.TaskValue()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize task: %w", err)
	}

	return &redis.XAddArgs{
		Stream: q.StreamName(taskType),
		Values: map[string]interface{}{
			"task_type": taskType,
			"task_data": string(taskValue),
		},
	}, nil
}
