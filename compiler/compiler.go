package compiler

import (
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"

	"github.com/sciro24/Kathara-labGenerator/addressing"
	"github.com/sciro24/Kathara-labGenerator/render"
	"github.com/sciro24/Kathara-labGenerator/review"
	"github.com/sciro24/Kathara-labGenerator/routingcfg"
	"github.com/sciro24/Kathara-labGenerator/servicecfg"
	"github.com/sciro24/Kathara-labGenerator/topology"
	labutil "github.com/sciro24/Kathara-labGenerator/util"
)

// Returned when the review found issues and the lab files were not
// rendered. The issue summary is attached to the error.
var ErrReviewFailed = errors.New("consistency review failed")

// Settings of the compile runs.
type Settings struct {
	Addressing addressing.Options
	Services   servicecfg.Options
}

// Returns the default settings.
func DefaultSettings() Settings {
	return Settings{
		Addressing: addressing.DefaultOptions(),
		Services:   servicecfg.DefaultOptions(),
	}
}

// Compiler option.
type Option func(*Compiler)

// Registers the compiler metrics in the given registerer instead of a
// private registry.
func WithRegisterer(registerer prometheus.Registerer) Option {
	return func(c *Compiler) {
		c.registerer = registerer
	}
}

// Reviews the derived configuration with the given dispatcher instead of
// the dispatcher with the default checkers.
func WithDispatcher(dispatcher review.Dispatcher) Option {
	return func(c *Compiler) {
		c.dispatcher = dispatcher
	}
}

// Compiles the topologies into the lab files. The derived state is
// computed anew on every run.
type Compiler struct {
	settings   Settings
	registerer prometheus.Registerer
	dispatcher review.Dispatcher
	metrics    *metrics
}

// Creates the compiler.
func New(settings Settings, options ...Option) *Compiler {
	compiler := &Compiler{settings: settings}
	for _, option := range options {
		option(compiler)
	}
	if compiler.registerer == nil {
		compiler.registerer = prometheus.NewRegistry()
	}
	if compiler.dispatcher == nil {
		compiler.dispatcher = review.NewDefaultDispatcher()
	}
	compiler.metrics = newMetrics(compiler.registerer)
	return compiler
}

// Outcome of a compile run. The artifacts are empty when the review
// found issues.
type Result struct {
	Plan      *addressing.Plan
	Routing   *routingcfg.Config
	Services  *servicecfg.Config
	Review    *review.Result
	Artifacts []*render.Artifact
	// Hash of the artifacts. It is the same for the runs of an unchanged
	// topology with the same settings.
	Digest string
}

// Compiles the topology: allocates the addresses, derives the routing
// and service configurations, reviews them and renders the lab files.
// The structural errors and unusable settings are returned directly.
// When the review finds issues, the result without the artifacts is
// returned with an error wrapping ErrReviewFailed.
func (c *Compiler) Compile(model *topology.Model) (*Result, error) {
	result, err := c.compile(model)
	switch {
	case errors.Is(err, ErrReviewFailed):
		c.metrics.Runs.WithLabelValues(runResultReviewFailed).Inc()
	case err != nil:
		c.metrics.Runs.WithLabelValues(runResultError).Inc()
	default:
		c.metrics.Runs.WithLabelValues(runResultSuccess).Inc()
	}
	return result, err
}

func (c *Compiler) compile(model *topology.Model) (*Result, error) {
	if model == nil {
		return nil, errors.New("topology is nil")
	}
	if err := model.ValidateStructure(); err != nil {
		return nil, errors.WithMessage(err, "invalid topology structure")
	}

	result := &Result{}
	var err error
	if result.Plan, err = addressing.Allocate(model, c.settings.Addressing); err != nil {
		return nil, errors.WithMessage(err, "cannot allocate the addresses")
	}
	c.metrics.LinksAllocated.Set(float64(len(result.Plan.Links())))

	if result.Routing, err = routingcfg.Build(model, result.Plan); err != nil {
		return nil, errors.WithMessage(err, "cannot build the routing configuration")
	}
	if result.Services, err = servicecfg.Build(model, result.Plan, c.settings.Services); err != nil {
		return nil, errors.WithMessage(err, "cannot build the service configuration")
	}

	result.Review, err = c.dispatcher.Review(&review.Input{
		Model:    model,
		Plan:     result.Plan,
		Routing:  result.Routing,
		Services: result.Services,
	})
	if err != nil {
		return nil, errors.WithMessage(err, "cannot review the configuration")
	}
	c.metrics.setIssues(result.Review.Counts())
	if !result.Review.OK() {
		log.WithField("issues", len(result.Review.Issues)).Debug("Review blocked the rendering")
		return result, errors.Wrapf(ErrReviewFailed, "%s", result.Review.Error())
	}

	result.Artifacts, err = render.Render(&render.Input{
		Model:    model,
		Plan:     result.Plan,
		Routing:  result.Routing,
		Services: result.Services,
	})
	if err != nil {
		return nil, errors.WithMessage(err, "cannot render the lab files")
	}
	result.Digest = Digest(result.Artifacts)
	c.metrics.ArtifactsTotal.Set(float64(len(result.Artifacts)))
	c.metrics.RenderedDevices.Set(float64(len(model.Devices())))

	log.WithFields(log.Fields{
		"devices":   len(model.Devices()),
		"links":     len(result.Plan.Links()),
		"artifacts": len(result.Artifacts),
		"digest":    result.Digest,
	}).Debug("Compiled topology")
	return result, nil
}

// Returns the FNV-128 hash of the artifact paths, contents and modes.
func Digest(artifacts []*render.Artifact) string {
	values := make([]any, 0, len(artifacts))
	for _, artifact := range artifacts {
		values = append(values, *artifact)
	}
	return labutil.Fnv128(values...)
}
