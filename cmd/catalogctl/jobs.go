package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/user"

	"github.com/hibiken/asynq"
	"github.com/spf13/cobra"

	"github.com/odyssey-erp/catalog/jobs"
)

type enqueuer interface {
	Enqueue(ctx context.Context, name, requestedBy string) (*asynq.TaskInfo, error)
	Close() error
}

type queueInspector interface {
	jobs.QueueInspector
	Close() error
}

// JobsCLI wraps manual management helpers for the job queue.
type JobsCLI struct {
	client    enqueuer
	inspector queueInspector
}

// NewJobsCLI connects the helpers to the queue at redisAddr.
func NewJobsCLI(redisAddr string) *JobsCLI {
	opts := asynq.RedisClientOpt{Addr: redisAddr}
	return &JobsCLI{client: jobs.NewClient(opts), inspector: asynq.NewInspector(opts)}
}

// Close releases underlying resources.
func (c *JobsCLI) Close() error {
	var errs []error
	if c.inspector != nil {
		errs = append(errs, c.inspector.Close())
	}
	if c.client != nil {
		errs = append(errs, c.client.Close())
	}
	return errors.Join(errs...)
}

// Trigger enqueues the job registered under name.
func (c *JobsCLI) Trigger(ctx context.Context, name string) (*asynq.TaskInfo, error) {
	if c == nil || c.client == nil {
		return nil, errors.New("jobs cli: client not configured")
	}
	return c.client.Enqueue(ctx, name, operator())
}

// Stats reports the state of the default queue.
func (c *JobsCLI) Stats() (jobs.QueueHealth, error) {
	if c == nil || c.inspector == nil {
		return jobs.QueueHealth{}, errors.New("jobs cli: inspector not configured")
	}
	info, err := c.inspector.GetQueueInfo(jobs.QueueDefault)
	if err != nil {
		return jobs.QueueHealth{}, err
	}
	stats := jobs.QueueHealth{Queue: jobs.QueueDefault}
	if info != nil {
		stats.Pending = info.Pending
		stats.Active = info.Active
		stats.Scheduled = info.Scheduled
		stats.Retry = info.Retry
		stats.Archived = info.Archived
		stats.Paused = info.Paused
	}
	return stats, nil
}

func operator() string {
	if u, err := user.Current(); err == nil {
		return "catalogctl:" + u.Username
	}
	return "catalogctl"
}

func newJobsCmd(open func() (*JobsCLI, error)) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "Trigger and inspect background jobs",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "trigger <task>",
		Short: "Enqueue a job now (" + jobs.TaskCatalogSnapshot + ")",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cli, err := open()
			if err != nil {
				return err
			}
			defer cli.Close()

			info, err := cli.Trigger(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			slog.Debug("task enqueued", slog.String("id", info.ID), slog.String("queue", info.Queue))
			fmt.Fprintf(cmd.OutOrStdout(), "enqueued %s as %s on queue %s\n", info.Type, info.ID, info.Queue)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "stats",
		Short: "Print the default queue statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cli, err := open()
			if err != nil {
				return err
			}
			defer cli.Close()

			stats, err := cli.Stats()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "queue=%s pending=%d active=%d scheduled=%d retry=%d archived=%d paused=%t\n",
				stats.Queue, stats.Pending, stats.Active, stats.Scheduled, stats.Retry, stats.Archived, stats.Paused)
			return nil
		},
	})
	return cmd
}
