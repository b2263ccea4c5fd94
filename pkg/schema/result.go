package schema

// ResultStatus classifies the outcome of a verification-engine command.
type ResultStatus string

const (
	// ResultOK means the command succeeded and the workflow may advance.
	ResultOK ResultStatus = "ok"
	// ResultNotFound means no fraud case exists for the requested identity.
	ResultNotFound ResultStatus = "not_found"
	// ResultRejected means the command was invoked in a state that forbids it.
	ResultRejected ResultStatus = "rejected"
	// ResultNothingToDo means the command had no case to act on; it is safe to ignore.
	ResultNothingToDo ResultStatus = "nothing_to_do"
)

// ToolResult is what every verification-engine command returns to the
// conversational runtime. Directive tells the dialogue layer what to
// communicate next; Say, when present, must be spoken to the customer
// verbatim (used only for the security question, so the dialogue layer
// can never invent a different one).
type ToolResult struct {
	Status    ResultStatus `json:"status"`
	Directive string       `json:"directive"`
	Say       string       `json:"say,omitempty"`
	Case      *FraudCase   `json:"case,omitempty"`
}
