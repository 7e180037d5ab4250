package review

import (
	"github.com/sciro24/Kathara-labGenerator/addressing"
	"github.com/sciro24/Kathara-labGenerator/routingcfg"
	"github.com/sciro24/Kathara-labGenerator/servicecfg"
	"github.com/sciro24/Kathara-labGenerator/topology"
)

// Derived configuration under review. The model is required; the other
// parts are skipped by the checkers when they are nil.
type Input struct {
	Model    *topology.Model
	Plan     *addressing.Plan
	Routing  *routingcfg.Config
	Services *servicecfg.Config
}

// Function implementing a checker. It returns the problems found as
// kinded errors, or an error when the check itself cannot be performed.
type CheckFunc func(*Input) ([]error, error)

// Represents a consistency checker. It includes a checker name and the
// function implementing the checker.
type checker struct {
	name    string
	checkFn CheckFunc
	enabled bool
}
