package review

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/sciro24/Kathara-labGenerator/topology"
)

// Represents a single consistency problem found during a review. The
// refs point at the devices, interfaces, links or records involved.
type Issue struct {
	Kind    topology.ErrorKind
	Refs    []string
	Message string
	// Name of the checker that found the issue.
	Checker string
}

// Creates the issue from a derivation error. It returns an error when
// the error carries no kind.
func newIssue(checkerName string, err error) (*Issue, error) {
	var kinded topology.KindedError
	if !errors.As(err, &kinded) {
		return nil, errors.Errorf("checker %s returned an error of unknown kind: %s", checkerName, err)
	}
	return &Issue{
		Kind:    kinded.Kind(),
		Refs:    kinded.Refs(),
		Message: strings.TrimSpace(err.Error()),
		Checker: checkerName,
	}, nil
}

// Returns the issue in the "Kind: message" form.
func (i *Issue) String() string {
	return fmt.Sprintf("%s: %s", i.Kind, i.Message)
}

// Outcome of a review. The issues are ordered by the checker
// registration order and then by the order the checkers found them.
type Result struct {
	Issues []*Issue
}

// Indicates that no issue was found and the configuration can be
// emitted.
func (r *Result) OK() bool {
	return len(r.Issues) == 0
}

// Returns the issues of the given kind.
func (r *Result) IssuesOfKind(kind topology.ErrorKind) []*Issue {
	var issues []*Issue
	for _, issue := range r.Issues {
		if issue.Kind == kind {
			issues = append(issues, issue)
		}
	}
	return issues
}

// Returns the number of issues per kind.
func (r *Result) Counts() map[topology.ErrorKind]int {
	counts := make(map[topology.ErrorKind]int)
	for _, issue := range r.Issues {
		counts[issue.Kind]++
	}
	return counts
}

// Returns a summary of all issues. It is empty when the review passed.
func (r *Result) Error() string {
	if r.OK() {
		return ""
	}
	lines := make([]string, 0, len(r.Issues))
	for _, issue := range r.Issues {
		lines = append(lines, issue.String())
	}
	noun := "issues"
	if len(r.Issues) == 1 {
		noun = "issue"
	}
	return fmt.Sprintf("%d consistency %s found: %s", len(r.Issues), noun, strings.Join(lines, "; "))
}
