package approval

import "strings"

// Decision is the user's answer to a confirmation request.
type Decision int

const (
	Denied Decision = iota
	Approved
)

// Callback data prefixes used by the approval inline keyboard.
const (
	CallbackApprove = "approve"
	CallbackReject  = "reject"
)

var affirmatives = map[string]struct{}{
	"y":       {},
	"yes":     {},
	"yes.":    {},
	"yep":     {},
	"yeah":    {},
	"ok":      {},
	"okay":    {},
	"sure":    {},
	"approve": {},
	"confirm": {},
	"go":      {},
	"do it":   {},
	"👍":       {},
	"✅":       {},
}

// DecideText interprets a free-text reply to a confirmation request. Only
// text matching the affirmative set approves; everything else, including
// empty or unrelated text, denies. Ambiguity fails closed.
func DecideText(text string) Decision {
	normalized := strings.ToLower(strings.TrimSpace(text))
	normalized = strings.TrimRight(normalized, "!")
	if _, ok := affirmatives[normalized]; ok {
		return Approved
	}
	return Denied
}

// DecideCallback interprets inline keyboard callback data of the form
// "approve:<approval_id>" or "reject:<approval_id>". The second return
// value is the approval id; ok is false when the payload is not an
// approval callback at all.
func DecideCallback(data string) (decision Decision, approvalID string, ok bool) {
	action, id, found := strings.Cut(data, ":")
	if !found {
		return Denied, "", false
	}
	switch action {
	case CallbackApprove:
		return Approved, id, true
	case CallbackReject:
		return Denied, id, true
	default:
		return Denied, "", false
	}
}
