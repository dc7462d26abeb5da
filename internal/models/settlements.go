package models

import (
	"database/sql"

	"github.com/shopspring/decimal"
)

type Settlement struct {
	ID        int             `json:"id,omitempty" db:"id,omitempty"`
	GroupID   int             `json:"group_id,omitempty" db:"group_id,omitempty"`
	PaidBy    int             `json:"paid_by,omitempty" db:"paid_by,omitempty"`
	PaidTo    int             `json:"paid_to,omitempty" db:"paid_to,omitempty"`
	Amount    decimal.Decimal `json:"amount,omitempty" db:"amount,omitempty"`
	CreatedAt sql.NullString  `json:"created_at,omitempty" db:"created_at,omitempty"`
}
