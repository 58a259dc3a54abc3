package incident

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/incident-sim/incident-sim/sim"
	"github.com/incident-sim/incident-sim/sim/workload"
)

// Config holds every constant of the incident model and its run driver.
// Loaded from YAML via LoadConfig; fields absent from the file keep DefaultConfig values.
type Config struct {
	Seed           string  `yaml:"seed"`
	SampleDuration float64 `yaml:"sample_duration"` // statistics window length (ticks)
	PhaseSwitch    float64 `yaml:"phase_switch"`    // tick at which the phase-2 arrival rate applies
	PhaseEnd       float64 `yaml:"phase_end"`       // tick at which phase 2 nominally ends
	ExtraEvents    int     `yaml:"extra_events"`    // arrivals sent beyond the two phases
	Arrival        string  `yaml:"arrival"`         // poisson or uniform

	Client       ClientConfig       `yaml:"client"`
	BuildService BuildServiceConfig `yaml:"build_service"`
	Database     DatabaseConfig     `yaml:"database"`
}

// ClientConfig sizes the front door.
type ClientConfig struct {
	Workers int `yaml:"workers"`
}

// BuildServiceConfig sizes the build service and its per-build compute cost.
type BuildServiceConfig struct {
	QueueCapacity int     `yaml:"queue_capacity"` // -1 for unbounded
	Workers       int     `yaml:"workers"`
	WorkMean      float64 `yaml:"work_mean"`
	WorkStdDev    float64 `yaml:"work_stddev"`
	RetryAttempts int     `yaml:"retry_attempts"`
}

// DatabaseConfig holds the contention model of the database.
type DatabaseConfig struct {
	Workers              int     `yaml:"workers"`
	LatencyBase          float64 `yaml:"latency_base"`
	LatencyA             float64 `yaml:"latency_a"`
	LatencyB             float64 `yaml:"latency_b"`
	Availability         float64 `yaml:"availability"`
	DeadlockThreshold    int     `yaml:"deadlock_threshold"`
	DeadlockAvailability float64 `yaml:"deadlock_availability"`
}

// DefaultConfig returns the constants of the studied incident.
func DefaultConfig() Config {
	return Config{
		Seed:           sim.DefaultSeed,
		SampleDuration: sim.DefaultSampleDuration,
		PhaseSwitch:    8000,
		PhaseEnd:       20000,
		ExtraEvents:    5000,
		Arrival:        "poisson",
		Client: ClientConfig{
			Workers: 10000,
		},
		BuildService: BuildServiceConfig{
			QueueCapacity: 1000,
			Workers:       220,
			WorkMean:      8,
			WorkStdDev:    2,
			RetryAttempts: sim.DefaultRetryAttempts,
		},
		Database: DatabaseConfig{
			Workers:              300,
			LatencyBase:          30,
			LatencyA:             0.06,
			LatencyB:             1.06,
			Availability:         0.9995,
			DeadlockThreshold:    70,
			DeadlockAvailability: 0.7,
		},
	}
}

// LoadConfig reads a YAML config on top of DefaultConfig.
// Uses strict field checking: typos must cause errors.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config: %w", err)
	}
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return cfg, &ConfigurationError{Field: path, Reason: err.Error()}
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks that all fields are usable.
func (c Config) Validate() error {
	switch {
	case c.SampleDuration <= 0:
		return invalid("sample_duration", c.SampleDuration, "must be positive")
	case c.PhaseSwitch < 0:
		return invalid("phase_switch", c.PhaseSwitch, "must not be negative")
	case c.PhaseEnd < c.PhaseSwitch:
		return invalid("phase_end", c.PhaseEnd, "must not precede phase_switch")
	case c.ExtraEvents < 0:
		return invalid("extra_events", c.ExtraEvents, "must not be negative")
	case c.Arrival != "" && c.Arrival != "poisson" && c.Arrival != "uniform":
		return invalid("arrival", c.Arrival, "valid: poisson, uniform")
	case c.Client.Workers < 1:
		return invalid("client.workers", c.Client.Workers, "must be >= 1")
	case c.BuildService.Workers < 1:
		return invalid("build_service.workers", c.BuildService.Workers, "must be >= 1")
	case c.BuildService.QueueCapacity < sim.Unbounded:
		return invalid("build_service.queue_capacity", c.BuildService.QueueCapacity, "must be >= 0 or -1 (unbounded)")
	case c.BuildService.RetryAttempts < 1:
		return invalid("build_service.retry_attempts", c.BuildService.RetryAttempts, "must be >= 1")
	case c.Database.Workers < 1:
		return invalid("database.workers", c.Database.Workers, "must be >= 1")
	case c.Database.DeadlockThreshold < 1:
		return invalid("database.deadlock_threshold", c.Database.DeadlockThreshold, "must be >= 1")
	case !isProbability(c.Database.Availability):
		return invalid("database.availability", c.Database.Availability, "must be within [0, 1]")
	case !isProbability(c.Database.DeadlockAvailability):
		return invalid("database.deadlock_availability", c.Database.DeadlockAvailability, "must be within [0, 1]")
	}
	return nil
}

// EventBudget returns how many arrivals a run with params sends:
// both phases at their rates plus ExtraEvents.
func (c Config) EventBudget(p ParameterVector) int {
	phase1 := c.PhaseSwitch / workload.RateUnit * p.ArrivalRate1
	phase2 := (c.PhaseEnd - c.PhaseSwitch) / workload.RateUnit * p.ArrivalRate2
	return int(phase1 + phase2 + float64(c.ExtraEvents))
}

func isProbability(v float64) bool {
	return v >= 0 && v <= 1
}
