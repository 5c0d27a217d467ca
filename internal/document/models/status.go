package models

// Status is a document's workflow state.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusReview    Status = "review"
	StatusApproval  Status = "approval"
	StatusSignature Status = "signature"
	StatusCompleted Status = "completed"
)

// transitions enumerates the allowed workflow moves. Review can bounce back
// to draft via request-changes; nothing leaves completed.
var transitions = map[Status][]Status{
	StatusDraft:     {StatusReview},
	StatusReview:    {StatusDraft, StatusApproval},
	StatusApproval:  {StatusSignature},
	StatusSignature: {StatusCompleted},
	StatusCompleted: {},
}

func (s Status) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// CanTransitionTo reports whether the workflow allows moving to target.
func (s Status) CanTransitionTo(target Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// Editable reports whether content changes (manual edits, redline apply)
// are still allowed. From approval on the text is frozen.
func (s Status) Editable() bool {
	return s == StatusDraft || s == StatusReview
}
