// Package observer implements the driver status observer (spec §4.4): a
// single execution context that polls every driver line and reports
// changes to the telemetry channel and drivers.csv.
package observer

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dmagro/slonk-controller/internal/csvlog"
	"github.com/dmagro/slonk-controller/internal/hw"
	"github.com/dmagro/slonk-controller/internal/telemetry"
)

// Observer is the change-detecting poll loop over the shared DriverBank.
type Observer struct {
	drivers    *hw.DriverBank
	dash       *telemetry.DashChannel
	log        *csvlog.Writer
	pollPeriod time.Duration
	last       []bool
	now        func() time.Time
}

// New builds an Observer. initial must match the configured initial
// levels, one per driver.
func New(drivers *hw.DriverBank, dash *telemetry.DashChannel, log *csvlog.Writer, initial []bool, pollPeriod time.Duration) *Observer {
	last := make([]bool, len(initial))
	copy(last, initial)
	return &Observer{drivers: drivers, dash: dash, log: log, pollPeriod: pollPeriod, last: last, now: time.Now}
}

// Run polls until ctx is cancelled or a poll fails: a driver line read
// error, a drivers.csv write failure, or a send-log failure each end the
// observer with that error.
func (o *Observer) Run(ctx context.Context) error {
	ticker := time.NewTicker(o.pollPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := o.poll(); err != nil {
				return err
			}
		}
	}
}

func (o *Observer) poll() error {
	values, err := o.drivers.ReadAll()
	if err != nil {
		return fmt.Errorf("observer: read drivers: %w", err)
	}

	if equal(values, o.last) {
		return nil
	}
	o.last = values

	row := make([]string, 0, len(values)+1)
	row = append(row, strconv.FormatInt(o.now().UnixNano(), 10))
	for _, v := range values {
		row = append(row, strconv.FormatBool(v))
	}
	if err := o.log.Append(strings.Join(row, ",") + "\n"); err != nil {
		return fmt.Errorf("observer: write drivers.csv: %w", err)
	}

	return o.dash.Send(telemetry.DriverValue(append([]bool(nil), values...)))
}

func equal(a, b []bool) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
