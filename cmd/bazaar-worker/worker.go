// Package main provides the Bazaar worker: it pops booking requests off the
// queue and drives each one through its transaction pipeline.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gardenlabs/bazaar/pkg/cmd"
	"github.com/gardenlabs/bazaar/pkg/sources/queue"
	"github.com/gardenlabs/bazaar/pkg/workflow"
)

type Worker struct {
	workerID string
	stack    *cmd.Stack
	logger   *slog.Logger
	redisURL string
	queue    string
}

func NewWorker(workerID string, stack *cmd.Stack, logger *slog.Logger, redisURL, queueName string) *Worker {
	return &Worker{
		workerID: workerID,
		stack:    stack,
		logger:   logger,
		redisURL: redisURL,
		queue:    queueName,
	}
}

// Run consumes booking requests until the context is cancelled or a
// termination signal arrives.
func (w *Worker) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := w.stack.Poller.Start(""); err != nil {
		return fmt.Errorf("failed to start settlement poller: %w", err)
	}

	source, err := queue.NewSource(w.redisURL, w.queue, w.logger)
	if err != nil {
		return fmt.Errorf("failed to create queue source: %w", err)
	}

	if err := source.Start(ctx, w.execute); err != nil {
		return fmt.Errorf("failed to start queue source: %w", err)
	}

	w.logger.InfoContext(ctx, "Worker started", "queue", w.queue)

	<-ctx.Done()

	w.logger.Info("Shutting down worker")

	return source.Stop(context.WithoutCancel(ctx))
}

func (w *Worker) execute(ctx context.Context, serviceType string, input map[string]any) error {
	def, err := w.stack.Repository.FetchByServiceType(ctx, serviceType)
	if err != nil {
		return fmt.Errorf("no definition for service type %s: %w", serviceType, err)
	}

	executionID := workflow.GenerateExecutionID()

	result := w.stack.Engine.Execute(ctx, executionID, def, input)
	if !result.Success {
		return fmt.Errorf("execution %s failed at step %s: %s",
			executionID, result.FailedStepID, result.Error)
	}

	return nil
}
