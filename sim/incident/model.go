package incident

import (
	"fmt"
	"sort"

	"github.com/incident-sim/incident-sim/sim"
)

// ModelName identifies one of the fixed wirings of the service chain.
type ModelName string

const (
	// ModelOriginal is the incident as it happened: small build queue, retry in front of the database.
	ModelOriginal ModelName = "O"
	// ModelA raises the build-service queue capacity.
	ModelA ModelName = "A"
	// ModelB scales out build-service workers instead.
	ModelB ModelName = "B"
	// ModelC removes the retry decorator.
	ModelC ModelName = "C"
)

const (
	modelAQueueCapacity = 10000
	modelBWorkers       = 50
)

// Model is one assembled chain: Client -> BuildService -> {Database | Retry(Database)}.
type Model struct {
	Name     ModelName
	Client   *Client
	Service  *BuildService
	Retry    *sim.Retry // nil when the model has no retry
	Database *Database
}

type modelBuilder func(ctx *sim.Context, cfg Config, before Interceptor) *Model

var modelBuilders = map[ModelName]modelBuilder{
	ModelOriginal: buildOriginal,
	ModelA:        buildModelA,
	ModelB:        buildModelB,
	ModelC:        buildModelC,
}

// ModelNames returns every known model token, sorted.
func ModelNames() []ModelName {
	names := make([]ModelName, 0, len(modelBuilders))
	for name := range modelBuilders {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}

// ParseModelName resolves a model token. Unknown tokens are a ConfigurationError.
func ParseModelName(token string) (ModelName, error) {
	name := ModelName(token)
	if _, ok := modelBuilders[name]; !ok {
		return "", &ConfigurationError{
			Field:  "model",
			Value:  token,
			Reason: fmt.Sprintf("unknown model; valid: %v", ModelNames()),
		}
	}
	return name, nil
}

// ModelOption customizes an assembled model.
type ModelOption func(*modelOptions)

type modelOptions struct {
	before Interceptor
}

// WithInterceptor installs a Client interceptor.
func WithInterceptor(fn Interceptor) ModelOption {
	return func(o *modelOptions) { o.before = fn }
}

// BuildModel assembles the named model inside ctx. ctx must have been reset.
func BuildModel(ctx *sim.Context, cfg Config, name ModelName, opts ...ModelOption) (*Model, error) {
	build, ok := modelBuilders[name]
	if !ok {
		_, err := ParseModelName(string(name))
		return nil, err
	}
	var o modelOptions
	for _, opt := range opts {
		opt(&o)
	}
	m := build(ctx, cfg, o.before)
	m.Name = name
	return m, nil
}

// chain wires the shared shape; withRetry selects whether the database is decorated.
func chain(ctx *sim.Context, cfg Config, before Interceptor, withRetry bool) *Model {
	m := &Model{Database: NewDatabase(ctx, cfg.Database)}
	var downstream sim.Stage = m.Database
	if withRetry {
		m.Retry = sim.NewRetry(m.Database)
		m.Retry.Attempts = cfg.BuildService.RetryAttempts
		downstream = m.Retry
	}
	m.Service = NewBuildService(ctx, downstream, cfg.BuildService)
	m.Client = NewClient(ctx, m.Service, cfg.Client.Workers, before)
	return m
}

func buildOriginal(ctx *sim.Context, cfg Config, before Interceptor) *Model {
	return chain(ctx, cfg, before, true)
}

func buildModelA(ctx *sim.Context, cfg Config, before Interceptor) *Model {
	m := chain(ctx, cfg, before, true)
	m.Service.Queue().SetCapacity(modelAQueueCapacity)
	return m
}

func buildModelB(ctx *sim.Context, cfg Config, before Interceptor) *Model {
	m := chain(ctx, cfg, before, true)
	m.Service.Queue().SetWorkers(modelBWorkers)
	return m
}

func buildModelC(ctx *sim.Context, cfg Config, before Interceptor) *Model {
	return chain(ctx, cfg, before, false)
}
