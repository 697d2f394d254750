// Package queue defines expense events and moves them over RabbitMQ.
package queue

import (
	"fmt"
	"time"

	"github.com/iliyamo/expense-tracker/internal/model"
)

// Event types, also used as the AMQP message type.
const (
	ExpenseCreated = "expense.created"
	ExpenseUpdated = "expense.updated"
	ExpenseDeleted = "expense.deleted"
)

// ExpenseEvent is published after every successful expense write.  It carries
// enough for the audit consumer to log the change without querying the
// primary database.
type ExpenseEvent struct {
	Type        string `json:"type"`
	ExpenseID   uint64 `json:"expense_id"`
	UserID      uint64 `json:"user_id"`
	Category    string `json:"category"`
	SubCategory string `json:"sub_category"`
	Amount      string `json:"amount"`
	Date        string `json:"date"`
	OccurredAt  string `json:"occurred_at"`
}

// NewExpenseEvent builds an event of the given type for e.
func NewExpenseEvent(typ string, e *model.Expense, at time.Time) ExpenseEvent {
	return ExpenseEvent{
		Type:        typ,
		ExpenseID:   e.ID,
		UserID:      e.Owner.ID,
		Category:    e.Category,
		SubCategory: e.SubCategory,
		Amount:      e.Amount.StringFixed(2),
		Date:        e.Date.String(),
		OccurredAt:  at.UTC().Format(time.RFC3339),
	}
}

// auditLine renders the event as a single human friendly log line.
func (ev ExpenseEvent) auditLine() string {
	return fmt.Sprintf("[%s] %s | expense_id=%d | user_id=%d | category=%q | sub_category=%q | amount=%s | date=%s\n",
		ev.OccurredAt, ev.Type, ev.ExpenseID, ev.UserID, ev.Category, ev.SubCategory, ev.Amount, ev.Date)
}
