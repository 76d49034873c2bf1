package main

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/catalog/jobs"
)

type stubClient struct {
	requested []string
	closed    bool
}

func (s *stubClient) Enqueue(_ context.Context, name, _ string) (*asynq.TaskInfo, error) {
	if name != jobs.TaskCatalogSnapshot {
		return nil, jobs.ErrUnknownTask
	}
	s.requested = append(s.requested, name)
	return &asynq.TaskInfo{ID: "task-1", Type: name, Queue: jobs.QueueDefault}, nil
}

func (s *stubClient) Close() error {
	s.closed = true
	return nil
}

type stubInspector struct {
	info *asynq.QueueInfo
	err  error
}

func (s stubInspector) GetQueueInfo(string) (*asynq.QueueInfo, error) { return s.info, s.err }
func (stubInspector) Close() error { return nil }

func run(t *testing.T, cli *JobsCLI, args ...string) (string, error) {
	t.Helper()
	cmd := newJobsCmd(func() (*JobsCLI, error) { return cli, nil })
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestTriggerSnapshot(t *testing.T) {
	client := &stubClient{}
	out, err := run(t, &JobsCLI{client: client, inspector: stubInspector{}}, "trigger", jobs.TaskCatalogSnapshot)
	require.NoError(t, err)
	assert.Equal(t, []string{jobs.TaskCatalogSnapshot}, client.requested)
	assert.Contains(t, out, "enqueued catalog:snapshot as task-1")
	assert.True(t, client.closed)
}

func TestTriggerUnknownTask(t *testing.T) {
	_, err := run(t, &JobsCLI{client: &stubClient{}, inspector: stubInspector{}}, "trigger", "mail:send")
	assert.ErrorIs(t, err, jobs.ErrUnknownTask)
}

func TestStats(t *testing.T) {
	cli := &JobsCLI{client: &stubClient{}, inspector: stubInspector{info: &asynq.QueueInfo{Queue: jobs.QueueDefault, Pending: 2, Retry: 1}}}
	out, err := run(t, cli, "stats")
	require.NoError(t, err)
	assert.Equal(t, "queue=default pending=2 active=0 scheduled=0 retry=1 archived=0 paused=false\n", out)

	cli.inspector = stubInspector{err: errors.New("redis down")}
	_, err = run(t, cli, "stats")
	assert.Error(t, err)
}
