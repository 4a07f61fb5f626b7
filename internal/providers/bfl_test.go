package providers

import (
	"context"
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFetcher struct {
	responses []fakeResponse
	calls     int
}

type fakeResponse struct {
	status  int
	body    string
	headers map[string]string
}

func (f *fakeFetcher) Do(_ context.Context, _ string, _ string, _ map[string]string, _ []byte) (int, []byte, map[string]string, error) {
	r := f.responses[f.calls]
	f.calls++
	return r.status, []byte(r.body), r.headers, nil
}

func TestBFLOrchestrator_SubmitPollDownload_HappyPath(t *testing.T) {
	fetch := &fakeFetcher{responses: []fakeResponse{
		{status: 200, body: `{"id":"task_1","polling_url":"https://bfl.test/poll/task_1"}`},
		{status: 200, body: `{"status":"Pending"}`},
		{status: 200, body: `{"status":"Ready","result":{"sample":"https://bfl.test/result.png"}}`},
		{status: 200, body: "fake-png-bytes", headers: map[string]string{"Content-Type": "image/png"}},
	}}

	orch := NewBFLOrchestrator(fetch, "https://bfl.test/submit", "test-key")
	out, err := orch.Run(context.Background(), map[string]any{"prompt": "a cat"})

	require.NoError(t, err)
	require.Len(t, out.Images, 1)
	assert.Equal(t, "image/png", out.Images[0].MIMEType)
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("fake-png-bytes")), out.Images[0].BaseOrURL)
}

func TestBFLOrchestrator_PollBackoffSchedule(t *testing.T) {
	fetch := &fakeFetcher{responses: []fakeResponse{
		{status: 200, body: `{"id":"task_1","polling_url":"https://bfl.test/poll/task_1"}`},
		{status: 200, body: `{"status":"Pending"}`},
		{status: 200, body: `{"status":"Pending"}`},
		{status: 200, body: `{"status":"Pending"}`},
		{status: 200, body: `{"status":"Pending"}`},
		{status: 200, body: `{"status":"Pending"}`},
		{status: 200, body: `{"status":"Pending"}`},
		{status: 200, body: `{"status":"Pending"}`},
		{status: 200, body: `{"status":"Pending"}`},
		{status: 200, body: `{"status":"Ready","result":{"sample":"https://bfl.test/result.png"}}`},
		{status: 200, body: "x", headers: map[string]string{"Content-Type": "image/png"}},
	}}

	var delays []time.Duration
	orch := NewBFLOrchestrator(fetch, "https://bfl.test/submit", "test-key")
	orch.Sleep = func(_ context.Context, d time.Duration) error {
		delays = append(delays, d)
		return nil
	}

	_, err := orch.Run(context.Background(), map[string]any{"prompt": "a cat"})
	require.NoError(t, err)

	require.Equal(t, []time.Duration{
		500 * time.Millisecond,
		750 * time.Millisecond,
		1125 * time.Millisecond,
		1687 * time.Millisecond,
		2531 * time.Millisecond,
		3796 * time.Millisecond,
		5000 * time.Millisecond,
		5000 * time.Millisecond,
	}, delays)
}

func TestBFLOrchestrator_ContentModerated(t *testing.T) {
	fetch := &fakeFetcher{responses: []fakeResponse{
		{status: 200, body: `{"id":"task_1","polling_url":"https://bfl.test/poll/task_1"}`},
		{status: 200, body: `{"status":"Content Moderated"}`},
	}}

	orch := NewBFLOrchestrator(fetch, "https://bfl.test/submit", "test-key")
	out, err := orch.Run(context.Background(), map[string]any{"prompt": "a cat"})

	require.NoError(t, err)
	assert.True(t, out.Error)
	assert.Equal(t, "content_filter", out.FinishReason)
}

func TestBFLOrchestrator_MissingAPIKey(t *testing.T) {
	orch := NewBFLOrchestrator(&fakeFetcher{}, "https://bfl.test/submit", "")
	_, err := orch.Run(context.Background(), map[string]any{"prompt": "a cat"})
	require.Error(t, err)
}

func TestBFLOrchestrator_CancellationStopsPolling(t *testing.T) {
	fetch := &fakeFetcher{responses: []fakeResponse{
		{status: 200, body: `{"id":"task_1","polling_url":"https://bfl.test/poll/task_1"}`},
	}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	orch := NewBFLOrchestrator(fetch, "https://bfl.test/submit", "test-key")
	_, err := orch.Run(ctx, map[string]any{"prompt": "a cat"})
	require.Error(t, err)
}
