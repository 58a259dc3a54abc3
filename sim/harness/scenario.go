package harness

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/incident-sim/incident-sim/sim/incident"
)

// Scenario is the sweep descriptor. JSON files parse too, since JSON is YAML.
//
//	{"scenario": "db-brownout", "models": ["O", "A", "B", "C"]}
type Scenario struct {
	Name   string   `yaml:"scenario" json:"scenario"`
	Models []string `yaml:"models" json:"models"`
}

// LoadScenario reads and validates a scenario descriptor.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario: %w", err)
	}
	var s Scenario
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return nil, &incident.ConfigurationError{Field: "scenario", Value: path, Reason: err.Error()}
	}
	if _, err := s.ModelNames(); err != nil {
		return nil, err
	}
	return &s, nil
}

// ModelNames validates and resolves the scenario's model tokens.
func (s *Scenario) ModelNames() ([]incident.ModelName, error) {
	if strings.TrimSpace(s.Name) == "" {
		return nil, &incident.ConfigurationError{Field: "scenario", Value: s.Name, Reason: "scenario name is required"}
	}
	if strings.ContainsAny(s.Name, `/\`) {
		return nil, &incident.ConfigurationError{Field: "scenario", Value: s.Name, Reason: "must not contain path separators"}
	}
	if len(s.Models) == 0 {
		return nil, &incident.ConfigurationError{Field: "models", Value: fmt.Sprint(s.Models), Reason: "at least one model is required"}
	}
	names := make([]incident.ModelName, 0, len(s.Models))
	seen := make(map[incident.ModelName]bool, len(s.Models))
	for _, token := range s.Models {
		name, err := incident.ParseModelName(token)
		if err != nil {
			return nil, err
		}
		if seen[name] {
			return nil, &incident.ConfigurationError{Field: "models", Value: token, Reason: "duplicate model"}
		}
		seen[name] = true
		names = append(names, name)
	}
	return names, nil
}

// LoadParameterMatrix reads whitespace-delimited rows of four numbers.
// Blank lines, including a trailing one, are skipped.
func LoadParameterMatrix(path string) ([]incident.ParameterVector, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("reading parameter matrix: %w", err)
	}
	defer func() { _ = file.Close() }()
	return ParseParameterMatrix(file, path)
}

// ParseParameterMatrix parses a matrix from r; name is used in errors.
func ParseParameterMatrix(r io.Reader, name string) ([]incident.ParameterVector, error) {
	var matrix []incident.ParameterVector
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		row := strings.TrimSpace(scanner.Text())
		if row == "" {
			continue
		}
		p, err := incident.ParseParameterVector(row)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", name, line, err)
		}
		matrix = append(matrix, p)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning %s: %w", name, err)
	}
	if len(matrix) == 0 {
		return nil, &incident.ConfigurationError{Field: "parameters", Value: name, Reason: "matrix has no rows"}
	}
	return matrix, nil
}
