package observer

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmagro/slonk-controller/internal/csvlog"
	"github.com/dmagro/slonk-controller/internal/hw"
	"github.com/dmagro/slonk-controller/internal/telemetry"
)

type memSubscriber struct {
	bytes.Buffer
}

func (*memSubscriber) Close() error { return nil }

func TestObserverEmitsOnlyOnChange(t *testing.T) {
	l0 := hw.NewFakeLine(false)
	l1 := hw.NewFakeLine(true)
	bank := hw.NewDriverBank([]hw.Line{l0, l1})

	dir := t.TempDir()
	path := filepath.Join(dir, "drivers.csv")
	w, err := csvlog.Create(path)
	require.NoError(t, err)
	defer w.Close()

	var sendLog bytes.Buffer
	dash := telemetry.New(&sendLog)
	sub := &memSubscriber{}
	dash.SetChannel(sub)

	obs := New(bank, dash, w, []bool{false, true}, 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- obs.Run(ctx) }()

	time.Sleep(20 * time.Millisecond) // several polls with no change
	require.NoError(t, l0.Write(true))
	time.Sleep(30 * time.Millisecond) // let the change be observed

	cancel()
	require.NoError(t, <-done)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := bytes.Count(data, []byte("\n"))
	require.Equal(t, 1, lines, "only the single actual change should produce a drivers.csv row")
	require.Contains(t, sub.String(), `"DriverValue"`)
}

func TestObserverNoChangeEmitsNothing(t *testing.T) {
	l0 := hw.NewFakeLine(false)
	bank := hw.NewDriverBank([]hw.Line{l0})

	dir := t.TempDir()
	w, err := csvlog.Create(filepath.Join(dir, "drivers.csv"))
	require.NoError(t, err)
	defer w.Close()

	var sendLog bytes.Buffer
	dash := telemetry.New(&sendLog)
	sub := &memSubscriber{}
	dash.SetChannel(sub)

	obs := New(bank, dash, w, []bool{false}, 5*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	require.NoError(t, obs.Run(ctx))

	require.Empty(t, sub.String())
}
