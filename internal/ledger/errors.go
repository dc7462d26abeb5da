package ledger

import "github.com/shopspring/decimal"

// Error codes returned to API clients. These are stable identifiers; the
// accompanying messages may change.
const (
	CodeValidation  = "validation_error"
	CodeConflict    = "conflict_error"
	CodeRefusal     = "refusal_error"
	CodePersistence = "persistence_error"
	CodeNotFound    = "not_found_error"
)

// RefusalError reasons.
const (
	ReasonNonZeroBalance    = "non-zero balance"
	ReasonSoleMember        = "sole member"
	ReasonSoleAdmin         = "sole admin"
	ReasonFinancialActivity = "financial activity"
)

// ValidationError marks malformed or policy-violating input. The caller can
// recover by correcting the request.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Code() string { return CodeValidation }

// ConflictError marks a duplicate-looking resource or uniqueness violation.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

func (e *ConflictError) Code() string { return CodeConflict }

// RefusalError marks a well-formed request refused by an invariant. Amount
// carries the blocking balance where the reason is a non-zero balance.
type RefusalError struct {
	Reason  string
	Amount  decimal.Decimal
	Message string
}

func (e *RefusalError) Error() string { return e.Message }

func (e *RefusalError) Code() string { return CodeRefusal }

// PersistenceError wraps a storage failure. The original error is logged
// internally and never shown to the caller.
type PersistenceError struct {
	Message string
	Err     error
}

func (e *PersistenceError) Error() string { return e.Message }

func (e *PersistenceError) Unwrap() error { return e.Err }

func (e *PersistenceError) Code() string { return CodePersistence }

// NotFoundError marks a missing group, user, expense, settlement or membership.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string { return e.Message }

func (e *NotFoundError) Code() string { return CodeNotFound }
