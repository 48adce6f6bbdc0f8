package alert

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andresuchdata/dropgate/internal/config"
	"github.com/andresuchdata/dropgate/pkg/logger"
)

func TestInvalidName(t *testing.T) {
	at := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	a := InvalidName("/drop/weird_file.txt", at)

	assert.Equal(t, "/drop/weird_file.txt", a.Path)
	assert.Contains(t, a.Message, "/drop/weird_file.txt")
	assert.Equal(t, at, a.RaisedAt)
}

func TestNew_Backends(t *testing.T) {
	var logs safeBuffer
	logger.SetOutput(&logs)
	t.Cleanup(func() { logger.SetOutput(io.Discard) })

	n, err := New(config.AlertConfig{Backend: config.AlertLog})
	require.NoError(t, err)
	assert.IsType(t, &Log{}, n)
	assert.Contains(t, logs.String(), "only be logged")

	n, err = New(config.AlertConfig{Backend: config.AlertConsole})
	require.NoError(t, err)
	assert.IsType(t, &Console{}, n)

	n, err = New(config.AlertConfig{Backend: config.AlertDialog})
	require.NoError(t, err)
	assert.IsType(t, &Dialog{}, n)

	_, err = New(config.AlertConfig{Backend: "carrier-pigeon"})
	require.Error(t, err)
}

func TestResolveBackend(t *testing.T) {
	tests := []struct {
		backend     string
		interactive bool
		want        string
	}{
		{config.AlertAuto, true, config.AlertConsole},
		{config.AlertAuto, false, config.AlertLog},
		{"", true, config.AlertConsole},
		{"", false, config.AlertLog},
		{config.AlertLog, true, config.AlertLog},
		{config.AlertDialog, false, config.AlertDialog},
		{config.AlertRedis, true, config.AlertRedis},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, resolveBackend(tt.backend, tt.interactive), "backend=%q interactive=%v", tt.backend, tt.interactive)
	}
}

func TestLog_NeverBlocks(t *testing.T) {
	require.NoError(t, NewLog().Notify(context.Background(), InvalidName("/drop/x", time.Now())))
}

func TestConsole_NonInteractive(t *testing.T) {
	var out bytes.Buffer
	c := newConsole(&out, strings.NewReader(""), false)

	require.NoError(t, c.Notify(context.Background(), InvalidName("/drop/weird_file.txt", time.Now())))
	assert.Contains(t, out.String(), "Invalid file name")
	assert.Contains(t, out.String(), "/drop/weird_file.txt")
	assert.NotContains(t, out.String(), "Press Enter")
}

func TestConsole_WaitsForEnter(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()

	var out safeBuffer
	c := newConsole(&out, pr, true)

	done := make(chan error, 1)
	go func() {
		done <- c.Notify(context.Background(), InvalidName("/drop/a", time.Now()))
	}()

	select {
	case <-done:
		t.Fatal("notify returned before acknowledgement")
	case <-time.After(50 * time.Millisecond):
	}

	_, err := pw.Write([]byte("\n"))
	require.NoError(t, err)

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("notify did not return after acknowledgement")
	}
	assert.Contains(t, out.String(), "Press Enter")
}

func TestConsole_ContextCancel(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()

	c := newConsole(io.Discard, pr, true)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := c.Notify(ctx, InvalidName("/drop/a", time.Now()))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestConsole_EnterForAbandonedPromptIsNotReused(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()

	c := newConsole(io.Discard, pr, true)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	require.ErrorIs(t, c.Notify(ctx, InvalidName("/drop/a", time.Now())), context.DeadlineExceeded)

	// The operator answers the first prompt after it was abandoned.
	_, err := pw.Write([]byte("\n"))
	require.NoError(t, err)
	time.Sleep(20 * time.Millisecond)

	done := make(chan error, 1)
	go func() {
		done <- c.Notify(context.Background(), InvalidName("/drop/b", time.Now()))
	}()

	select {
	case <-done:
		t.Fatal("second alert was acknowledged by the earlier Enter")
	case <-time.After(50 * time.Millisecond):
	}

	_, err = pw.Write([]byte("\n"))
	require.NoError(t, err)

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("notify did not return after acknowledgement")
	}
}

func TestDialog_Serializes(t *testing.T) {
	var (
		mu      sync.Mutex
		active  int
		maxSeen int
	)
	d := &Dialog{show: func(ctx context.Context, a Alert) error {
		mu.Lock()
		active++
		maxSeen = max(maxSeen, active)
		mu.Unlock()

		time.Sleep(5 * time.Millisecond)

		mu.Lock()
		active--
		mu.Unlock()
		return nil
	}}

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, d.Notify(context.Background(), InvalidName("/drop/a", time.Now())))
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxSeen)
}

func TestDialog_PropagatesError(t *testing.T) {
	d := &Dialog{show: func(context.Context, Alert) error { return errors.New("no display") }}
	assert.EqualError(t, d.Notify(context.Background(), Alert{}), "no display")
}

func TestBuildRedisOptions(t *testing.T) {
	opts, err := buildRedisOptions(config.RedisConfig{})
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:6379", opts.Addr)

	opts, err = buildRedisOptions(config.RedisConfig{Host: "cache", Port: "6380", Password: "pw", DB: 2})
	require.NoError(t, err)
	assert.Equal(t, "cache:6380", opts.Addr)
	assert.Equal(t, "pw", opts.Password)
	assert.Equal(t, 2, opts.DB)

	opts, err = buildRedisOptions(config.RedisConfig{URL: "redis://:secret@redis.internal:6390/3"})
	require.NoError(t, err)
	assert.Equal(t, "redis.internal:6390", opts.Addr)
	assert.Equal(t, "secret", opts.Password)
	assert.Equal(t, 3, opts.DB)

	_, err = buildRedisOptions(config.RedisConfig{URL: "://bad"})
	require.Error(t, err)
}

type fakePublisher struct {
	channel string
	payload []byte
	err     error
}

func (p *fakePublisher) Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd {
	p.channel = channel
	p.payload, _ = message.([]byte)
	return redis.NewIntResult(1, p.err)
}

func (p *fakePublisher) Close() error { return nil }

func TestRedis_NotifyPublishesJSON(t *testing.T) {
	pub := &fakePublisher{}
	r := &Redis{client: pub, channel: "ops:alerts"}
	at := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	require.NoError(t, r.Notify(context.Background(), InvalidName("/drop/weird_file.txt", at)))

	assert.Equal(t, "ops:alerts", pub.channel)
	var got Alert
	require.NoError(t, json.Unmarshal(pub.payload, &got))
	assert.Equal(t, "/drop/weird_file.txt", got.Path)
	assert.Equal(t, "Invalid file name", got.Title)
	assert.True(t, at.Equal(got.RaisedAt))
}

func TestRedis_NotifyPublishError(t *testing.T) {
	r := &Redis{client: &fakePublisher{err: errors.New("connection reset")}, channel: defaultAlertChannel}

	err := r.Notify(context.Background(), InvalidName("/drop/a", time.Now()))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
}

type safeBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *safeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *safeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
