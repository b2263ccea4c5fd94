// Package verify implements the verification workflow: the state machine
// that decides, over a multi-turn conversation, whether a flagged
// transaction is legitimate.
//
// A session moves Idle -> CaseLoaded -> Verified -> Resolved. The engine
// never produces conversational prose of its own; it returns directives the
// dialogue layer phrases, plus the one fixed utterance (the security
// question) that must be spoken verbatim.
package verify

import (
	"errors"
	"fmt"
	"sync"

	"github.com/securetrust-dev/fraudguard/internal/engine"
	"github.com/securetrust-dev/fraudguard/pkg/schema"
)

// Command is the closed set of operations the conversational runtime may
// invoke. Dispatch matches on it exhaustively, so a command that is illegal
// for a state is handled explicitly rather than falling through a string
// lookup.
type Command interface {
	isCommand()
}

// LoadCase attaches the fraud case for the named customer to the session.
type LoadCase struct {
	Username string
}

// SubmitAnswer checks the caller's answer against the loaded case's
// security answer.
type SubmitAnswer struct {
	Answer string
}

// ConfirmTransaction records the verified customer's yes/no on whether they
// made the transaction.
type ConfirmTransaction struct {
	Made bool
}

// CloseVerificationFailed closes the loaded case after a failed security
// check. Harmless when no case is loaded.
type CloseVerificationFailed struct{}

// GetCaseDetails returns the loaded case's transaction details. Read-only.
type GetCaseDetails struct{}

func (LoadCase) isCommand()                {}
func (SubmitAnswer) isCommand()            {}
func (ConfirmTransaction) isCommand()      {}
func (CloseVerificationFailed) isCommand() {}
func (GetCaseDetails) isCommand()          {}

// Session is the per-conversation working memory. CurrentCase is a detached
// copy of the stored record, mutated locally and written back only on
// resolution, so concurrent store writes from other sessions are never
// observed mid-conversation. Sessions are never persisted.
type Session struct {
	mu          sync.Mutex
	CurrentCase *schema.FraudCase
	IsVerified  bool
	CaseClosed  bool
}

// Engine dispatches commands against a session and the case store.
type Engine struct {
	store *engine.CaseStore
}

// NewEngine builds a verification engine on top of a case store.
func NewEngine(store *engine.CaseStore) *Engine {
	return &Engine{store: store}
}

const (
	noteConfirmedSafe  = "Customer confirmed the suspicious transaction as legitimate."
	noteConfirmedFraud = "Customer denied the suspicious transaction. Mock action: card blocked and dispute process initiated."
	noteVerifyFailed   = "Verification failed. Caller could not correctly answer the security question."
)

// Dispatch runs one command against the session. Workflow outcomes -
// including "no such case" and "not allowed in this state" - come back as
// the ToolResult's status so the conversation can recover gracefully; the
// returned error is reserved for backend failures.
func (e *Engine) Dispatch(s *Session, cmd Command) (schema.ToolResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch c := cmd.(type) {
	case LoadCase:
		return e.loadCase(s, c)
	case SubmitAnswer:
		return e.submitAnswer(s, c)
	case ConfirmTransaction:
		return e.confirmTransaction(s, c)
	case CloseVerificationFailed:
		return e.closeVerificationFailed(s)
	case GetCaseDetails:
		return e.caseDetails(s)
	default:
		return schema.ToolResult{}, fmt.Errorf("unknown command %T", cmd)
	}
}

func (e *Engine) loadCase(s *Session, cmd LoadCase) (schema.ToolResult, error) {
	found, err := e.store.FindByUsername(cmd.Username)
	if errors.Is(err, engine.ErrCaseNotFound) {
		s.CurrentCase = nil
		return schema.ToolResult{
			Status: schema.ResultNotFound,
			Directive: fmt.Sprintf(
				"No active fraud case found for the name %q. Gently tell the customer there is no active suspicious transaction on file.",
				cmd.Username,
			),
		}, nil
	}
	if err != nil {
		return schema.ToolResult{}, err
	}

	// Re-entrant load: a fresh case always starts unverified and open.
	s.CurrentCase = &found
	s.IsVerified = false
	s.CaseClosed = false

	return schema.ToolResult{
		Status: schema.ResultOK,
		Say:    fmt.Sprintf("For verification, please answer this question: %s", found.SecurityQuestion),
		Directive: fmt.Sprintf(
			"Loaded the fraud case for %q. The security question has already been asked verbatim; wait for the customer's answer and submit it. Do not invent any other security questions.",
			found.Username,
		),
	}, nil
}

func (e *Engine) submitAnswer(s *Session, cmd SubmitAnswer) (schema.ToolResult, error) {
	if s.CurrentCase == nil {
		return schema.ToolResult{
			Status:    schema.ResultNothingToDo,
			Directive: "No fraud case is loaded, so there is nothing to verify. Tell the customer something went wrong and end the call.",
		}, nil
	}
	if s.CaseClosed {
		return schema.ToolResult{
			Status:    schema.ResultRejected,
			Directive: "This case is already resolved; no further verification is possible.",
		}, nil
	}

	if !s.CurrentCase.AnswerMatches(cmd.Answer) {
		s.IsVerified = false
		return schema.ToolResult{
			Status:    schema.ResultRejected,
			Directive: "Verification failed. Tell the customer you cannot continue for security reasons, then close the case as verification failed.",
		}, nil
	}

	s.IsVerified = true
	return schema.ToolResult{
		Status:    schema.ResultOK,
		Directive: "Verification successful. Calmly explain the suspicious transaction and ask whether the customer made it.",
	}, nil
}

func (e *Engine) confirmTransaction(s *Session, cmd ConfirmTransaction) (schema.ToolResult, error) {
	if s.CurrentCase == nil {
		return schema.ToolResult{
			Status:    schema.ResultNothingToDo,
			Directive: "No fraud case is loaded. Nothing to update.",
		}, nil
	}
	if !s.IsVerified {
		return schema.ToolResult{
			Status:    schema.ResultRejected,
			Directive: "The customer has not passed verification; the transaction outcome cannot be recorded yet.",
		}, nil
	}
	if s.CaseClosed {
		return schema.ToolResult{
			Status:    schema.ResultRejected,
			Directive: "This case is already resolved; the outcome has been recorded once and will not be recorded again.",
		}, nil
	}

	if cmd.Made {
		s.CurrentCase.Status = schema.StatusConfirmedSafe
		s.CurrentCase.OutcomeNote = noteConfirmedSafe
	} else {
		s.CurrentCase.Status = schema.StatusConfirmedFraud
		s.CurrentCase.OutcomeNote = noteConfirmedFraud
	}

	if err := e.store.Upsert(*s.CurrentCase); err != nil {
		return schema.ToolResult{}, err
	}
	s.CaseClosed = true

	if cmd.Made {
		return schema.ToolResult{
			Status:    schema.ResultOK,
			Directive: "The case is now marked confirmed_safe. Reassure the customer that everything is okay and close the call politely.",
			Case:      s.CurrentCase,
		}, nil
	}
	return schema.ToolResult{
		Status:    schema.ResultOK,
		Directive: "The case is now marked confirmed_fraud. Tell the customer the card has been blocked and a dispute started (mock action), then close the call.",
		Case:      s.CurrentCase,
	}, nil
}

func (e *Engine) closeVerificationFailed(s *Session) (schema.ToolResult, error) {
	if s.CurrentCase == nil {
		return schema.ToolResult{
			Status:    schema.ResultNothingToDo,
			Directive: "No fraud case is loaded. Politely explain that for security reasons the call cannot proceed, and end it.",
		}, nil
	}
	if s.CaseClosed {
		return schema.ToolResult{
			Status:    schema.ResultNothingToDo,
			Directive: "This case is already resolved; nothing further to record.",
		}, nil
	}

	s.CurrentCase.Status = schema.StatusVerificationFailed
	s.CurrentCase.OutcomeNote = noteVerifyFailed
	if err := e.store.Upsert(*s.CurrentCase); err != nil {
		return schema.ToolResult{}, err
	}
	s.CaseClosed = true

	return schema.ToolResult{
		Status:    schema.ResultOK,
		Directive: "The case is now marked verification_failed. Politely explain that the call cannot proceed without successful verification and end it.",
		Case:      s.CurrentCase,
	}, nil
}

func (e *Engine) caseDetails(s *Session) (schema.ToolResult, error) {
	if s.CurrentCase == nil {
		return schema.ToolResult{
			Status:    schema.ResultNothingToDo,
			Directive: "There is no active fraud case loaded for this session.",
		}, nil
	}

	return schema.ToolResult{
		Status:    schema.ResultOK,
		Directive: s.CurrentCase.TransactionSummary(),
		Case:      s.CurrentCase,
	}, nil
}
