// =============================================================================
// FILE: internal/sampler/sampler.go
// ROLE: Per-group sensor sampling loop (spec §4.3)
// =============================================================================
//
// One Sampler runs per configured sensor group, each in its own goroutine
// started once at orchestrator startup (spec §3's lifecycle). It owns that
// group's rolling windows, drives the ADC reads for its sensors, and
// decimates its own SensorValue emission against the telemetry channel.
// =============================================================================
package sampler

import (
	"context"
	"fmt"
	"time"

	"github.com/dmagro/slonk-controller/internal/config"
	"github.com/dmagro/slonk-controller/internal/csvlog"
	"github.com/dmagro/slonk-controller/internal/hw"
	"github.com/dmagro/slonk-controller/internal/rolling"
	"github.com/dmagro/slonk-controller/internal/statemachine"
	"github.com/dmagro/slonk-controller/internal/telemetry"
)

// Sampler periodically samples every sensor in one group.
type Sampler struct {
	groupID uint8
	group   config.SensorGroup
	adcs    []*hw.ADC // indexed by the global ADC index from configuration
	state   *statemachine.Machine
	dash    *telemetry.DashChannel
	logs    []*csvlog.Writer // one per sensor, in group order
	windows []*rolling.Window

	now   func() time.Time
	sleep func(ctx context.Context, until time.Time) bool // false if ctx was cancelled
}

// New builds a Sampler for one sensor group. logs must have one entry per
// sensor in group, in the same order.
func New(groupID uint8, group config.SensorGroup, adcs []*hw.ADC, state *statemachine.Machine, dash *telemetry.DashChannel, logs []*csvlog.Writer) *Sampler {
	windows := make([]*rolling.Window, len(group.Sensors))
	for i := range windows {
		windows[i] = rolling.New(group.WindowSize)
	}
	return &Sampler{
		groupID: groupID,
		group:   group,
		adcs:    adcs,
		state:   state,
		dash:    dash,
		logs:    logs,
		windows: windows,
		now:     time.Now,
		sleep:   sleepUntil,
	}
}

func sleepUntil(ctx context.Context, until time.Time) bool {
	d := time.Until(until)
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// samplePeriod returns the sampling period in effect for the current
// controller state: Standby uses the group's standby cadence, PreIgnite
// and Ignite both use the faster active cadence.
func (s *Sampler) samplePeriod() time.Duration {
	if s.state.Get() == statemachine.Standby {
		return time.Duration(s.group.SamplePeriodStandby() * float64(time.Second))
	}
	return time.Duration(s.group.SamplePeriodActive() * float64(time.Second))
}

func (s *Sampler) dashPeriod() time.Duration {
	return time.Duration(s.group.DashPeriod() * float64(time.Second))
}

// Run drives the sampling loop until ctx is cancelled, a per-sensor CSV
// write fails (fatal to the group per spec §4.3), or the send log rejects
// a SensorValue message.
func (s *Sampler) Run(ctx context.Context) error {
	tNext := s.now()
	var lastDashEmit time.Time
	latest := make([]telemetry.SensorReading, len(s.group.Sensors))
	haveLatest := make([]bool, len(s.group.Sensors))

	for {
		if !s.sleep(ctx, tNext) {
			return nil
		}

		now := s.now()

		for i, sensor := range s.group.Sensors {
			raw, err := s.readOne(sensor)
			if err != nil {
				s.dash.Send(telemetry.ErrSensorFail(s.groupID, uint8(i), err.Error()))
				continue
			}

			if err := s.logs[i].Append(fmt.Sprintf("%d,%d\n", now.UnixNano(), raw)); err != nil {
				return fmt.Errorf("sampler: group %q sensor %q: write csv: %w", s.group.Label, sensor.Label, err)
			}

			s.windows[i].Push(rolling.Sample{Raw: raw, Time: now})
			latest[i] = telemetry.SensorReading{
				SensorID: uint8(i),
				Reading:  raw,
				Time: telemetry.WireTime{
					SecsSinceEpoch:  now.Unix(),
					NanosSinceEpoch: int64(now.Nanosecond()),
				},
			}
			haveLatest[i] = true
		}

		if now.Sub(lastDashEmit) >= s.dashPeriod() && s.dash.HasTarget() {
			readings := make([]telemetry.SensorReading, 0, len(latest))
			for i, r := range latest {
				if haveLatest[i] {
					readings = append(readings, r)
				}
			}
			if err := s.dash.Send(telemetry.SensorValue(s.groupID, readings)); err != nil {
				return fmt.Errorf("sampler: group %q: send log: %w", s.group.Label, err)
			}
			lastDashEmit = now
		}

		period := s.samplePeriod()
		tNext = tNext.Add(period)
		if s.now().Sub(tNext) > period {
			tNext = s.now()
		}
	}
}

func (s *Sampler) readOne(sensor config.Sensor) (uint16, error) {
	if sensor.ADC < 0 || sensor.ADC >= len(s.adcs) {
		return 0, fmt.Errorf("adc index %d out of range", sensor.ADC)
	}
	return s.adcs[sensor.ADC].Read(sensor.Channel)
}

// Mean returns the rolling average raw value for the sensor at index i in
// this group, or 0 if i is out of range. The command executor does not
// consult it.
func (s *Sampler) Mean(i int) float64 {
	if i < 0 || i >= len(s.windows) {
		return 0
	}
	return s.windows[i].Mean()
}
