package incident

import (
	"math"
	"strconv"
	"strings"
)

// ParameterVectorLen is the number of values in one parameter row.
const ParameterVectorLen = 4

// ParameterVector holds the scenario inputs of a single run.
// Rates are events per 1000 ticks.
type ParameterVector struct {
	ArrivalRate1         float64 `json:"arrival_rate_1" yaml:"arrival_rate_1"`
	DatabaseLatencyBase  float64 `json:"database_latency_base" yaml:"database_latency_base"`
	DatabaseAvailability float64 `json:"database_availability" yaml:"database_availability"`
	ArrivalRate2         float64 `json:"arrival_rate_2" yaml:"arrival_rate_2"`
}

// NewParameterVector builds a vector from the ordered row
// [rate phase 1, db latency base, db availability, rate phase 2].
func NewParameterVector(values []float64) (ParameterVector, error) {
	if len(values) != ParameterVectorLen {
		return ParameterVector{}, invalid("parameters", values, "expected 4 values: rate1 latencyBase availability rate2")
	}
	p := ParameterVector{
		ArrivalRate1:         values[0],
		DatabaseLatencyBase:  values[1],
		DatabaseAvailability: values[2],
		ArrivalRate2:         values[3],
	}
	return p, p.Validate()
}

// ParseParameterVector parses a whitespace-delimited row of numbers.
func ParseParameterVector(row string) (ParameterVector, error) {
	fields := strings.Fields(row)
	values := make([]float64, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return ParameterVector{}, invalid("parameters", row, "not a number: "+f)
		}
		values = append(values, v)
	}
	return NewParameterVector(values)
}

// Validate rejects vectors no run could use.
func (p ParameterVector) Validate() error {
	for _, v := range p.Values() {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return invalid("parameters", p.Values(), "values must be finite")
		}
	}
	switch {
	case p.ArrivalRate1 <= 0:
		return invalid("arrival_rate_1", p.ArrivalRate1, "must be positive")
	case p.ArrivalRate2 <= 0:
		return invalid("arrival_rate_2", p.ArrivalRate2, "must be positive")
	case p.DatabaseLatencyBase < 0:
		return invalid("database_latency_base", p.DatabaseLatencyBase, "must not be negative")
	case !isProbability(p.DatabaseAvailability):
		return invalid("database_availability", p.DatabaseAvailability, "must be within [0, 1]")
	}
	return nil
}

// Values returns the vector in row order.
func (p ParameterVector) Values() []float64 {
	return []float64{p.ArrivalRate1, p.DatabaseLatencyBase, p.DatabaseAvailability, p.ArrivalRate2}
}
