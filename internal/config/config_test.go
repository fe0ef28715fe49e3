package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const minimalJSON = `{
  "spi_mosi": 10, "spi_miso": 9, "spi_clk": 11, "spi_frequency_clk": 1000000,
  "adc_cs": [8],
  "drivers": [{"label": "main_valve", "pin": 17, "protected": true, "safe_level": false}],
  "sensor_groups": [
    {
      "label": "pressure",
      "frequency_standby_hz": 1,
      "frequency_ignite_hz": 100,
      "frequency_dash_hz": 1,
      "window_size": 8,
      "sensors": [
        {"label": "pt1", "adc": 0, "channel": 0, "unit": "psi", "calibration_intercept": 0, "calibration_slope": 1}
      ]
    }
  ],
  "ignition_sequence": [
    {"offset_ms": 0, "action": {"type": "Actuate", "driver_id": 0, "level": true}},
    {"offset_ms": 1000, "action": {"type": "Sleep"}}
  ],
  "pre_ignite_time_ms": 2000,
  "post_ignite_time_ms": 2000
}`

func writeTemp(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoadMinimalConfig(t *testing.T) {
	path := writeTemp(t, minimalJSON)
	cfg, err := Load(path)
	require.NoError(t, err)

	require.Len(t, cfg.Drivers, 1)
	require.Len(t, cfg.SensorGroups, 1)
	require.Equal(t, "pt1", cfg.SensorGroups[0].Sensors[0].Label)
	require.Equal(t, 50, cfg.DriverPollPeriodMs, "default driver poll period")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
}

func TestValidateRejectsOutOfRangeADC(t *testing.T) {
	bad := `{"adc_cs":[8],"drivers":[],"sensor_groups":[{"label":"g","frequency_standby_hz":1,"frequency_ignite_hz":1,"frequency_dash_hz":1,"window_size":1,"sensors":[{"label":"s","adc":5,"channel":0}]}]}`
	_, err := Load(writeTemp(t, bad))
	require.Error(t, err)
	require.Contains(t, err.Error(), "adc index")
}

func TestValidateRejectsDashFasterThanSample(t *testing.T) {
	bad := `{"adc_cs":[8],"drivers":[],"sensor_groups":[{"label":"g","frequency_standby_hz":1,"frequency_ignite_hz":1,"frequency_dash_hz":10,"window_size":1,"sensors":[]}]}`
	_, err := Load(writeTemp(t, bad))
	require.Error(t, err)
}

func TestValidateRejectsUnknownActionType(t *testing.T) {
	bad := `{"adc_cs":[8],"drivers":[{"label":"d","pin":1}],"sensor_groups":[],"ignition_sequence":[{"offset_ms":0,"action":{"type":"Bogus"}}]}`
	_, err := Load(writeTemp(t, bad))
	require.Error(t, err)
}

func TestSamplePeriodHelpers(t *testing.T) {
	g := SensorGroup{FrequencyStandby: 2, FrequencyIgnite: 100, FrequencyDash: 1}
	require.InDelta(t, 0.5, g.SamplePeriodStandby(), 0.0001)
	require.InDelta(t, 0.01, g.SamplePeriodActive(), 0.0001)
	require.InDelta(t, 1.0, g.DashPeriod(), 0.0001)
}
