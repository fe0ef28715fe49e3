// =============================================================================
// FILE: internal/config/config.go
// ROLE: Configuration Layer — Loading and Validating the Test Stand Layout
// =============================================================================
//
// Every long-lived piece of the controller (the sampler goroutines, the
// driver observer, the command executor) is handed the same immutable
// *Config produced here. It is read once at startup from the JSON document
// named on the command line and never mutated again — there is no hot
// reconfiguration (spec Non-goal).
//
// JSON is a syntactic subset of YAML, so the same `yaml:"..."` struct tags
// used to decode it double as the on-disk field names; gopkg.in/yaml.v3 is
// unmarshalled directly against the configuration file's bytes rather than
// reaching for encoding/json, the same "config struct + one parser call"
// shape the teacher codebase uses for its own provider list.
// =============================================================================
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the immutable, fully-validated configuration for a controller
// process.
type Config struct {
	SPIMOSI            int           `yaml:"spi_mosi" json:"spi_mosi"`
	SPIMISO            int           `yaml:"spi_miso" json:"spi_miso"`
	SPIClk             int           `yaml:"spi_clk" json:"spi_clk"`
	SPIFrequencyHz     int           `yaml:"spi_frequency_clk" json:"spi_frequency_clk"`
	ADCChipSelects     []int         `yaml:"adc_cs" json:"adc_cs"`
	Drivers            []Driver      `yaml:"drivers" json:"drivers"`
	SensorGroups       []SensorGroup `yaml:"sensor_groups" json:"sensor_groups"`
	IgnitionSeq        []SeqStep     `yaml:"ignition_sequence" json:"ignition_sequence"`
	PreIgniteTimeMs    int           `yaml:"pre_ignite_time_ms" json:"pre_ignite_time_ms"`
	PostIgniteTimeMs   int           `yaml:"post_ignite_time_ms" json:"post_ignite_time_ms"`
	DriverPollPeriodMs int           `yaml:"driver_poll_period_ms" json:"driver_poll_period_ms"`
}

// Driver is a single GPIO-driven solenoid, relay, or valve output.
type Driver struct {
	Label     string `yaml:"label" json:"label"`
	Pin       int    `yaml:"pin" json:"pin"`
	Protected bool   `yaml:"protected" json:"protected"`
	SafeLevel bool   `yaml:"safe_level" json:"safe_level"`
}

// SensorGroup is a set of sensors sharing a sampling cadence and a
// dashboard decimation period.
type SensorGroup struct {
	Label            string   `yaml:"label" json:"label"`
	FrequencyStandby float64  `yaml:"frequency_standby_hz" json:"frequency_standby_hz"`
	FrequencyIgnite  float64  `yaml:"frequency_ignite_hz" json:"frequency_ignite_hz"`
	FrequencyDash    float64  `yaml:"frequency_dash_hz" json:"frequency_dash_hz"`
	WindowSize       int      `yaml:"window_size" json:"window_size"`
	Sensors          []Sensor `yaml:"sensors" json:"sensors"`
}

// Sensor is a single ADC channel with a human-facing calibration.
type Sensor struct {
	Label                string  `yaml:"label" json:"label"`
	ADC                  int     `yaml:"adc" json:"adc"`
	Channel              int     `yaml:"channel" json:"channel"`
	Unit                 string  `yaml:"unit" json:"unit"`
	CalibrationIntercept float64 `yaml:"calibration_intercept" json:"calibration_intercept"`
	CalibrationSlope     float64 `yaml:"calibration_slope" json:"calibration_slope"`
}

// ActionType distinguishes the two kinds of ignition-sequence step.
type ActionType string

const (
	ActionActuate ActionType = "Actuate"
	ActionSleep   ActionType = "Sleep"
)

// Action is either "drive this driver to this level" or "do nothing, just
// let time pass until the next step".
type Action struct {
	Type     ActionType `yaml:"type" json:"type"`
	DriverID int        `yaml:"driver_id,omitempty" json:"driver_id,omitempty"`
	Level    bool       `yaml:"level,omitempty" json:"level,omitempty"`
}

// SeqStep is one entry of the scripted ignition timeline: at OffsetMs after
// the sequence's anchor time, perform Action. A step with Ignite set is the
// point at which the controller state advances from PreIgnite to Ignite; if
// no step sets it, state advances at the anchor time itself.
type SeqStep struct {
	OffsetMs int    `yaml:"offset_ms" json:"offset_ms"`
	Action   Action `yaml:"action" json:"action"`
	Ignite   bool   `yaml:"ignite,omitempty" json:"ignite,omitempty"`
}

// Load reads and validates a configuration file from path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	if cfg.DriverPollPeriodMs <= 0 {
		cfg.DriverPollPeriodMs = 50
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}

	return &cfg, nil
}

// Validate checks that every ADC, driver, and sensor index in the
// configuration resolves to an existing line, per spec §3's invariant. It
// is called once by Load and is also exported so tests can exercise
// malformed configurations directly.
func (c *Config) Validate() error {
	if len(c.ADCChipSelects) == 0 {
		return fmt.Errorf("no ADC chip-select lines declared")
	}

	for gi, g := range c.SensorGroups {
		if g.WindowSize <= 0 {
			return fmt.Errorf("sensor group %q: window_size must be positive", g.Label)
		}
		if g.FrequencyDash <= 0 || g.FrequencyStandby <= 0 || g.FrequencyIgnite <= 0 {
			return fmt.Errorf("sensor group %q: sampling/dashboard frequencies must be positive", g.Label)
		}
		if g.FrequencyDash > g.FrequencyStandby || g.FrequencyDash > g.FrequencyIgnite {
			return fmt.Errorf("sensor group %q: dashboard rate must not exceed sampling rate", g.Label)
		}
		for si, s := range g.Sensors {
			if s.ADC < 0 || s.ADC >= len(c.ADCChipSelects) {
				return fmt.Errorf("group %d sensor %d (%q): adc index %d out of range", gi, si, s.Label, s.ADC)
			}
			if s.Channel < 0 || s.Channel > 7 {
				return fmt.Errorf("group %d sensor %d (%q): channel %d out of range", gi, si, s.Label, s.Channel)
			}
		}
	}

	for i, d := range c.Drivers {
		if d.Pin < 0 {
			return fmt.Errorf("driver %d (%q): invalid pin %d", i, d.Label, d.Pin)
		}
	}

	for _, step := range c.IgnitionSeq {
		switch step.Action.Type {
		case ActionActuate:
			if step.Action.DriverID < 0 || step.Action.DriverID >= len(c.Drivers) {
				return fmt.Errorf("ignition sequence: driver id %d out of range", step.Action.DriverID)
			}
		case ActionSleep:
			// nothing further to validate
		default:
			return fmt.Errorf("ignition sequence: unknown action type %q", step.Action.Type)
		}
	}

	return nil
}

// SamplePeriodStandby returns the Standby-state sampling period for the
// group.
func (g SensorGroup) SamplePeriodStandby() float64 { return 1.0 / g.FrequencyStandby }

// SamplePeriodActive returns the PreIgnite/Ignite sampling period for the
// group.
func (g SensorGroup) SamplePeriodActive() float64 { return 1.0 / g.FrequencyIgnite }

// DashPeriod returns the dashboard emission period for the group.
func (g SensorGroup) DashPeriod() float64 { return 1.0 / g.FrequencyDash }
