package review

import (
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// State of a checker managed by the dispatcher.
type CheckerState string

// Valid checker states.
const (
	CheckerStateEnabled  CheckerState = "enabled"
	CheckerStateDisabled CheckerState = "disabled"
)

// Names of the default checkers.
const (
	StructureCheckerName          = "structure"
	DerivationErrorsCheckerName   = "derivation_errors"
	SubnetDisjointnessCheckerName = "subnet_disjointness"
	InterfaceAddressesCheckerName = "interface_addresses"
	BGPSymmetryCheckerName        = "bgp_symmetry"
	ProtocolInterfacesCheckerName = "protocol_interfaces"
	ZoneRecordsCheckerName        = "zone_records"
)

// Dispatcher runs the registered checkers over the derived
// configuration and collects their issues.
type Dispatcher interface {
	RegisterChecker(checkerName string, checkFn CheckFunc)
	UnregisterChecker(checkerName string) bool
	SetCheckerState(checkerName string, state CheckerState) error
	GetCheckerNames() []string
	Review(input *Input) (*Result, error)
}

// Dispatcher implementation. The checkers run in the registration order.
type dispatcherImpl struct {
	checkers []*checker
}

// Creates new dispatcher instance without checkers.
func NewDispatcher() Dispatcher {
	return &dispatcherImpl{}
}

// Creates new dispatcher instance with the default checkers.
func NewDefaultDispatcher() Dispatcher {
	dispatcher := NewDispatcher()
	RegisterDefaultCheckers(dispatcher)
	return dispatcher
}

// Registers new checker. A checker registered under an existing name
// replaces the previous one keeping its position.
func (d *dispatcherImpl) RegisterChecker(checkerName string, checkFn CheckFunc) {
	if c := d.getChecker(checkerName); c != nil {
		c.checkFn = checkFn
		return
	}
	d.checkers = append(d.checkers, &checker{name: checkerName, checkFn: checkFn, enabled: true})
}

// Unregisters a checker. It returns a boolean value indicating if the
// matching checker was found and removed.
func (d *dispatcherImpl) UnregisterChecker(checkerName string) bool {
	for i, c := range d.checkers {
		if c.name == checkerName {
			d.checkers = append(d.checkers[:i], d.checkers[i+1:]...)
			return true
		}
	}
	return false
}

// Enables or disables a checker.
func (d *dispatcherImpl) SetCheckerState(checkerName string, state CheckerState) error {
	c := d.getChecker(checkerName)
	if c == nil {
		return errors.Errorf("checker %s does not exist", checkerName)
	}
	switch state {
	case CheckerStateEnabled:
		c.enabled = true
	case CheckerStateDisabled:
		c.enabled = false
	default:
		return errors.Errorf("invalid checker state '%s'", state)
	}
	return nil
}

// Returns the names of the registered checkers in the registration
// order.
func (d *dispatcherImpl) GetCheckerNames() []string {
	names := make([]string, 0, len(d.checkers))
	for _, c := range d.checkers {
		names = append(names, c.name)
	}
	return names
}

// Returns the checker with the given name or nil.
func (d *dispatcherImpl) getChecker(checkerName string) *checker {
	for _, c := range d.checkers {
		if c.name == checkerName {
			return c
		}
	}
	return nil
}

// Runs all enabled checkers. The review never stops at the first issue;
// it returns an error only when the input is incomplete or a checker
// cannot run.
func (d *dispatcherImpl) Review(input *Input) (*Result, error) {
	if input == nil || input.Model == nil {
		return nil, errors.New("review requires the topology")
	}
	result := &Result{}
	for _, c := range d.checkers {
		if !c.enabled {
			log.WithField("checker", c.name).Debug("Skipping disabled checker")
			continue
		}
		problems, err := c.checkFn(input)
		if err != nil {
			return nil, errors.WithMessagef(err, "checker %s failed", c.name)
		}
		for _, problem := range problems {
			issue, err := newIssue(c.name, problem)
			if err != nil {
				return nil, err
			}
			result.Issues = append(result.Issues, issue)
		}
		log.WithFields(log.Fields{
			"checker": c.name,
			"issues":  len(problems),
		}).Debug("Checker finished")
	}
	return result, nil
}

// Registers default checkers in this package. When new checker is
// implemented it should be included in this function.
func RegisterDefaultCheckers(dispatcher Dispatcher) {
	dispatcher.RegisterChecker(StructureCheckerName, structure)
	dispatcher.RegisterChecker(DerivationErrorsCheckerName, derivationErrors)
	dispatcher.RegisterChecker(SubnetDisjointnessCheckerName, subnetDisjointness)
	dispatcher.RegisterChecker(InterfaceAddressesCheckerName, interfaceAddresses)
	dispatcher.RegisterChecker(BGPSymmetryCheckerName, bgpSymmetry)
	dispatcher.RegisterChecker(ProtocolInterfacesCheckerName, protocolInterfaces)
	dispatcher.RegisterChecker(ZoneRecordsCheckerName, zoneRecords)
}

// Runs the default checkers over the derived configuration.
func Review(input *Input) (*Result, error) {
	return NewDefaultDispatcher().Review(input)
}
