package dialogue

import "fmt"

// IssueKind names one class of graph problem.
type IssueKind string

const (
	EmptyScenario             IssueKind = "EmptyScenario"
	MissingInitialNode        IssueKind = "MissingInitialNode"
	MultipleInitialNodes      IssueKind = "MultipleInitialNodes"
	UnreachableNode           IssueKind = "UnreachableNode"
	DeadEndNode               IssueKind = "DeadEndNode"
	AmbiguousAutoNode         IssueKind = "AmbiguousAutoNode"
	UnresolvedOption          IssueKind = "UnresolvedOption"
	OrphanOption              IssueKind = "OrphanOption"
	DuplicateOptionConnection IssueKind = "DuplicateOptionConnection"
	DuplicateOptionLabel      IssueKind = "DuplicateOptionLabel"
	InvalidOptionLabel        IssueKind = "InvalidOptionLabel"
	OptionLimitExceeded       IssueKind = "OptionLimitExceeded"
	InvalidConnection         IssueKind = "InvalidConnection"
	FinalNodeHasExits         IssueKind = "FinalNodeHasExits"
	InconsistentFinalFlag     IssueKind = "InconsistentFinalFlag"
	RoleWithoutFlow           IssueKind = "RoleWithoutFlow"
	PrimaryFlowMismatch       IssueKind = "PrimaryFlowMismatch"
	EmptyFlow                 IssueKind = "EmptyFlow"
	CrossRoleConnection       IssueKind = "CrossRoleConnection"
)

// Issue is one finding. Ref is the id of the entity the finding is about.
type Issue struct {
	Kind    IssueKind `json:"kind"`
	Ref     string    `json:"ref,omitempty"`
	Message string    `json:"message"`
}

func (i Issue) String() string {
	return fmt.Sprintf("%s: %s", i.Kind, i.Message)
}

// Report is the outcome of Validate. Errors block activation, warnings do not.
type Report struct {
	Errors   []Issue `json:"errors"`
	Warnings []Issue `json:"warnings"`
}

// OK reports whether the graph has no errors.
func (r Report) OK() bool { return len(r.Errors) == 0 }

// Count returns how many errors of kind k were found.
func (r Report) Count(k IssueKind) int {
	n := 0
	for _, i := range r.Errors {
		if i.Kind == k {
			n++
		}
	}
	return n
}

// Messages flattens the errors for display.
func (r Report) Messages() []string {
	out := make([]string, 0, len(r.Errors))
	for _, i := range r.Errors {
		out = append(out, i.String())
	}
	return out
}

func (r *Report) fail(kind IssueKind, ref fmt.Stringer, format string, args ...any) {
	r.Errors = append(r.Errors, Issue{Kind: kind, Ref: ref.String(), Message: fmt.Sprintf(format, args...)})
}

func (r *Report) warn(kind IssueKind, ref fmt.Stringer, format string, args ...any) {
	r.Warnings = append(r.Warnings, Issue{Kind: kind, Ref: ref.String(), Message: fmt.Sprintf(format, args...)})
}
