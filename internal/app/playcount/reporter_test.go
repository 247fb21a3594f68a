package playcount

import (
	"bytes"
	"context"
	"sync"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	mu      sync.Mutex
	success bool
	err     error
	calls   []string
}

func (f *fakeClient) IncrementPlayCount(_ context.Context, trackID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, trackID)
	return f.success, f.err
}

type fakeDisplay struct {
	mu     sync.Mutex
	tracks map[string]string
	counts map[string]string
}

func newFakeDisplay() *fakeDisplay {
	return &fakeDisplay{
		tracks: map[string]string{"vid00000001": "7"},
		counts: map[string]string{"7": "3"},
	}
}

func (d *fakeDisplay) TrackIDFor(videoID string) (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	id, ok := d.tracks[videoID]
	return id, ok
}

func (d *fakeDisplay) PlayCountText(trackID string) (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	text, ok := d.counts[trackID]
	return text, ok
}

func (d *fakeDisplay) SetPlayCountText(trackID, text string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.counts[trackID]; !ok {
		return false
	}
	d.counts[trackID] = text
	return true
}

// captureLogs redirects the global logger for the duration of the test.
func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := zlog.Logger
	zlog.Logger = zerolog.New(&buf)
	t.Cleanup(func() { zlog.Logger = prev })
	return &buf
}

func TestReporter_Increment(t *testing.T) {
	tests := []struct {
		name     string
		success  bool
		err      error
		expected string
		wantErr  error
	}{
		{name: "success bumps the count", success: true, expected: "4"},
		{name: "rejected keeps the count", success: false, expected: "3", wantErr: ErrNotCounted},
		{name: "network error keeps the count", err: errors.New("connection refused"), expected: "3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &fakeClient{success: tt.success, err: tt.err}
			display := newFakeDisplay()
			r := NewReporter(client, display)

			err := r.Increment(context.Background(), "vid00000001")
			if tt.success {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}

			text, _ := display.PlayCountText("7")
			assert.Equal(t, tt.expected, text)
			assert.Equal(t, []string{"7"}, client.calls)
		})
	}
}

func TestReporter_IncrementUnknownVideo(t *testing.T) {
	client := &fakeClient{success: true}
	r := NewReporter(client, newFakeDisplay())

	err := r.Increment(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrTrackNotFound)
	assert.Empty(t, client.calls)
}

func TestReporter_IncrementWithoutDisplay(t *testing.T) {
	display := newFakeDisplay()
	delete(display.counts, "7")
	r := NewReporter(&fakeClient{success: true}, display)

	assert.NoError(t, r.Increment(context.Background(), "vid00000001"))
}

func TestReporter_IncrementNonNumericDisplay(t *testing.T) {
	display := newFakeDisplay()
	display.counts["7"] = "n/a"
	r := NewReporter(&fakeClient{success: true}, display)

	err := r.Increment(context.Background(), "vid00000001")
	assert.ErrorIs(t, err, ErrInvalidCount)
	text, _ := display.PlayCountText("7")
	assert.Equal(t, "n/a", text)
}

func TestReporter_ReportLogsFailure(t *testing.T) {
	logs := captureLogs(t)
	display := newFakeDisplay()
	r := NewReporter(&fakeClient{success: false}, display)

	r.Report(context.Background(), "vid00000001")
	r.Wait()

	text, _ := display.PlayCountText("7")
	assert.Equal(t, "3", text)
	assert.Contains(t, logs.String(), "failed to increment play count")
}

func TestReporter_ReportSuccess(t *testing.T) {
	display := newFakeDisplay()
	r := NewReporter(&fakeClient{success: true}, display)

	r.Report(context.Background(), "vid00000001")
	r.Wait()

	text, ok := display.PlayCountText("7")
	require.True(t, ok)
	assert.Equal(t, "4", text)
}
