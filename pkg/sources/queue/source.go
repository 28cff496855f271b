// Package queue consumes booking requests from a Redis list and feeds them
// into the workflow engine.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	redis "github.com/redis/go-redis/v9"
)

const popTimeout = 1 * time.Second

// Callback receives one booking request. serviceType selects the workflow
// definition; input seeds the execution context.
type Callback func(ctx context.Context, serviceType string, input map[string]any) error

// Source pops JSON booking requests off a Redis list with BLPop. Each
// message needs a service_type field; everything else is passed through as
// run input.
type Source struct {
	Queue string

	client   redis.UniversalClient
	callback Callback
	logger   *slog.Logger
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

func NewSource(redisURL, queue string, logger *slog.Logger) (*Source, error) {
	if queue == "" {
		return nil, errors.New("queue name is required")
	}

	options, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	return &Source{
		Queue:  queue,
		client: redis.NewClient(options),
		stopCh: make(chan struct{}),
		logger: logger.With("module", "queue_source", "queue", queue),
	}, nil
}

func (s *Source) Start(ctx context.Context, callback Callback) error {
	s.callback = callback

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := s.client.Ping(pingCtx).Err(); err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}

	s.logger.InfoContext(ctx, "Starting queue source")

	s.wg.Add(1)

	go s.consume(ctx)

	return nil
}

func (s *Source) consume(ctx context.Context) {
	defer s.wg.Done()

	for {
		select {
		case <-s.stopCh:
			s.logger.InfoContext(ctx, "Queue source stopped")

			return
		case <-ctx.Done():
			s.logger.InfoContext(ctx, "Context cancelled, stopping queue source")

			return
		default:
			if err := s.processMessage(ctx); err != nil {
				s.logger.ErrorContext(ctx, "Error processing message", "error", err)
				time.Sleep(1 * time.Second)
			}
		}
	}
}

func (s *Source) processMessage(ctx context.Context) error {
	result, err := s.client.BLPop(ctx, popTimeout, s.Queue).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) || errors.Is(err, context.Canceled) {
			return nil
		}

		return fmt.Errorf("failed to pop message from queue: %w", err)
	}

	if len(result) < 2 {
		return nil
	}

	message := result[1]

	var input map[string]any
	if err := json.Unmarshal([]byte(message), &input); err != nil {
		return fmt.Errorf("malformed booking request: %w", err)
	}

	serviceType, _ := input["service_type"].(string)
	if serviceType == "" {
		s.logger.WarnContext(ctx, "Booking request without service_type, dropping", "message", message)

		return nil
	}

	delete(input, "service_type")

	go func() {
		if err := s.callback(ctx, serviceType, input); err != nil {
			s.logger.ErrorContext(ctx, "Error executing workflow for booking request", "error", err)
		}
	}()

	return nil
}

func (s *Source) Stop(ctx context.Context) error {
	s.logger.InfoContext(ctx, "Stopping queue source")

	close(s.stopCh)
	s.wg.Wait()

	if s.client != nil {
		if err := s.client.Close(); err != nil {
			s.logger.ErrorContext(ctx, "Error closing Redis client", "error", err)
		}
	}

	return nil
}
