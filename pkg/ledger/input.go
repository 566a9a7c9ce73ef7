package ledger

import (
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// validate is a single, package-level validator instance — struct
// validation is stateless and safe for concurrent use, the same
// pattern the teacher's webapi layer uses.
var validate = validator.New()

func init() {
	_ = validate.RegisterValidation("accountnumber", func(fl validator.FieldLevel) bool {
		return accountNumberPattern.MatchString(fl.Field().String())
	})
}

// DepositInput is the input contract for the DEPOSIT primitive (spec §6.1).
type DepositInput struct {
	UserID        uuid.UUID      `validate:"required"`
	AccountNumber string         `validate:"required,accountnumber"`
	Amount        string         `validate:"required"`
	Currency      string         `validate:"required,len=3,uppercase"`
	Description   string         `validate:"omitempty,max=500"`
	Reference     string         `validate:"omitempty,max=200"`
	Metadata      map[string]any `validate:"omitempty"`
}

// WithdrawalInput is the input contract for the WITHDRAWAL primitive (spec §6.1).
type WithdrawalInput struct {
	UserID        uuid.UUID      `validate:"required"`
	AccountNumber string         `validate:"required,accountnumber"`
	Amount        string         `validate:"required"`
	Currency      string         `validate:"required,len=3,uppercase"`
	Description   string         `validate:"omitempty,max=500"`
	Reference     string         `validate:"omitempty,max=200"`
	Metadata      map[string]any `validate:"omitempty"`
}

// FeeInput is the input contract for the FEE primitive (spec §6.1); same
// shape as Deposit/Withdrawal, per spec.
type FeeInput struct {
	UserID        uuid.UUID      `validate:"required"`
	AccountNumber string         `validate:"required,accountnumber"`
	Amount        string         `validate:"required"`
	Currency      string         `validate:"required,len=3,uppercase"`
	Description   string         `validate:"required,max=500"`
	Reference     string         `validate:"omitempty,max=200"`
	Metadata      map[string]any `validate:"omitempty"`
}

// TransferInput is the input contract for the TRANSFER primitive (spec §6.1).
type TransferInput struct {
	UserID          uuid.UUID      `validate:"required"`
	FromAccountNumber string       `validate:"required,accountnumber"`
	ToAccountNumber   string       `validate:"required,accountnumber"`
	Amount          string         `validate:"required"`
	Currency        string         `validate:"required,len=3,uppercase"`
	Description     string         `validate:"omitempty,max=500"`
	Reference       string         `validate:"omitempty,max=200"`
	Metadata        map[string]any `validate:"omitempty"`
}

// ReversalInput is the input contract for the REVERSAL primitive (spec §6.1).
type ReversalInput struct {
	UserID              uuid.UUID      `validate:"required"`
	OriginalTransactionID string       `validate:"required"`
	Reason              string         `validate:"required"`
	Metadata            map[string]any `validate:"omitempty"`
}

// Validate runs struct-tag validation (shape, spec §6.1) on any input DTO.
func Validate(input any) error {
	if err := validate.Struct(input); err != nil {
		return Wrap(BadRequest, "invalid input", err)
	}
	return nil
}
