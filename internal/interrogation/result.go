// Package interrogation implements the USSD question-answering engine: leaf
// interrogators, dialog state machines, flow directors, and the session
// manager that stitches stateless gateway requests into resumable dialogs.
package interrogation

// ResultKind discriminates the outcome of one ask/answer exchange.
type ResultKind int

const (
	// ResultContinue means the dialog goes on: Question holds the next text
	// to present (a fresh question or a try-again re-prompt).
	ResultContinue ResultKind = iota
	// ResultComplete means the unit (interrogator or whole flow) is done.
	ResultComplete
	// ResultCancelled means the flow was cut short cooperatively (e.g. a
	// survey quota was hit); Farewell overrides the director's goodbye.
	ResultCancelled
)

// Result is the outcome of AskOrAnswer. An explicit sum type instead of
// exception-style control flow: callers switch exhaustively on Kind.
type Result struct {
	Kind     ResultKind
	Question string
	Farewell string
}

// Continue builds a continue result carrying the next question text.
func Continue(question string) Result {
	return Result{Kind: ResultContinue, Question: question}
}

// Complete builds a completion result.
func Complete() Result {
	return Result{Kind: ResultComplete}
}

// Cancelled builds a cancellation result with a farewell override.
func Cancelled(farewell string) Result {
	return Result{Kind: ResultCancelled, Farewell: farewell}
}
