package sampler

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmagro/slonk-controller/internal/config"
	"github.com/dmagro/slonk-controller/internal/csvlog"
	"github.com/dmagro/slonk-controller/internal/hw"
	"github.com/dmagro/slonk-controller/internal/statemachine"
	"github.com/dmagro/slonk-controller/internal/telemetry"
)

type memSubscriber struct {
	bytes.Buffer
}

func (*memSubscriber) Close() error { return nil }

func newGroup(t *testing.T) (config.SensorGroup, []*hw.ADC, []*csvlog.Writer, *hw.FakeTransceiver, string) {
	t.Helper()
	bus := &hw.Bus{}
	tx := hw.NewFakeTransceiver()
	tx.Set(0, 1234)
	adc := hw.NewADC(bus, hw.NewFakeLine(true), tx)

	group := config.SensorGroup{
		Label:            "pressure",
		FrequencyStandby: 1000, // fast so the test doesn't wait long
		FrequencyIgnite:  1000,
		FrequencyDash:    1000,
		WindowSize:       4,
		Sensors: []config.Sensor{
			{Label: "pt1", ADC: 0, Channel: 0},
		},
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "pt1.csv")
	w, err := csvlog.Create(path)
	require.NoError(t, err)
	t.Cleanup(func() { w.Close() })

	return group, []*hw.ADC{adc}, []*csvlog.Writer{w}, tx, path
}

func TestSamplerWritesCSVRows(t *testing.T) {
	group, adcs, logs, _, path := newGroup(t)
	state := statemachine.New()
	var sendLog bytes.Buffer
	dash := telemetry.New(&sendLog)

	s := New(0, group, adcs, state, dash, logs)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	_ = s.Run(ctx)

	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NotEmpty(t, contents, "sampler must have appended at least one raw reading")
}

func TestSamplerDecimatesDashboardEmission(t *testing.T) {
	bus := &hw.Bus{}
	tx := hw.NewFakeTransceiver()
	tx.Set(0, 500)
	adc := hw.NewADC(bus, hw.NewFakeLine(true), tx)

	group := config.SensorGroup{
		Label:            "pressure",
		FrequencyStandby: 500, // 2ms sample period
		FrequencyIgnite:  500,
		FrequencyDash:    20, // 50ms dashboard period: far fewer emissions than samples
		WindowSize:       4,
		Sensors:          []config.Sensor{{Label: "pt1", ADC: 0, Channel: 0}},
	}

	dir := t.TempDir()
	w, err := csvlog.Create(filepath.Join(dir, "pressure", "pt1.csv"))
	require.NoError(t, err)
	defer w.Close()

	state := statemachine.New()
	var sendLog bytes.Buffer
	dash := telemetry.New(&sendLog)
	sub := &memSubscriber{}
	dash.SetChannel(sub)

	s := New(0, group, []*hw.ADC{adc}, state, dash, []*csvlog.Writer{w})

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Millisecond)
	defer cancel()
	_ = s.Run(ctx)

	raw, err := os.ReadFile(filepath.Join(dir, "pressure", "pt1.csv"))
	require.NoError(t, err)
	sampleRows := bytes.Count(raw, []byte("\n"))
	emissions := bytes.Count(sub.Bytes(), []byte(`"type":"SensorValue"`))

	require.Greater(t, sampleRows, emissions, "dashboard emission must be decimated relative to raw sampling")
	require.Greater(t, emissions, 0)
}

func TestSamplerReportsSensorFailAndContinues(t *testing.T) {
	bus := &hw.Bus{}
	tx := hw.NewFakeTransceiver()
	tx.Set(0, 111)
	tx.SetFail(1, true)
	tx.Set(2, 333)
	adc := hw.NewADC(bus, hw.NewFakeLine(true), tx)

	group := config.SensorGroup{
		Label:            "g",
		FrequencyStandby: 1000,
		FrequencyIgnite:  1000,
		FrequencyDash:    1000,
		WindowSize:       2,
		Sensors: []config.Sensor{
			{Label: "a", ADC: 0, Channel: 0},
			{Label: "b", ADC: 0, Channel: 1},
			{Label: "c", ADC: 0, Channel: 2},
		},
	}

	dir := t.TempDir()
	logs := make([]*csvlog.Writer, 3)
	for i, s := range group.Sensors {
		w, err := csvlog.Create(filepath.Join(dir, s.Label+".csv"))
		require.NoError(t, err)
		logs[i] = w
		defer w.Close()
	}

	state := statemachine.New()
	var sendLog bytes.Buffer
	dash := telemetry.New(&sendLog)
	sub := &memSubscriber{}
	dash.SetChannel(sub)

	s := New(0, group, []*hw.ADC{adc}, state, dash, logs)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_ = s.Run(ctx)

	require.Contains(t, sub.String(), `"SensorFail"`)

	aData, err := os.ReadFile(filepath.Join(dir, "a.csv"))
	require.NoError(t, err)
	require.NotEmpty(t, aData, "sensor a must still be sampled despite b's failure")

	cData, err := os.ReadFile(filepath.Join(dir, "c.csv"))
	require.NoError(t, err)
	require.NotEmpty(t, cData, "sensor c must still be sampled despite b's failure")

	bData, err := os.ReadFile(filepath.Join(dir, "b.csv"))
	require.NoError(t, err)
	require.Empty(t, bData, "failing sensor must not have a row logged for the failed read")
}

func TestMeanReflectsRollingWindow(t *testing.T) {
	group, adcs, logs, tx, _ := newGroup(t)
	state := statemachine.New()
	var sendLog bytes.Buffer
	dash := telemetry.New(&sendLog)

	s := New(0, group, adcs, state, dash, logs)
	_ = tx

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Millisecond)
	defer cancel()
	_ = s.Run(ctx)

	require.InDelta(t, 1234.0, s.Mean(0), 0.001)
	require.Equal(t, 0.0, s.Mean(99), "out-of-range index returns zero rather than panicking")
}
