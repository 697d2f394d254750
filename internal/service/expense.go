package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"

	"github.com/iliyamo/expense-tracker/internal/logging"
	"github.com/iliyamo/expense-tracker/internal/model"
	"github.com/iliyamo/expense-tracker/internal/queue"
	"github.com/iliyamo/expense-tracker/internal/repository"
)

// Messages shared with the HTTP validator.
const (
	MsgCategoryRequired    = "Category is required"
	MsgCategoryTooLong     = "Category must be at most 100 characters"
	MsgSubCategoryRequired = "SubCategory is required"
	MsgSubCategoryTooLong  = "SubCategory must be at most 100 characters"
	MsgAmountRequired      = "Amount is required"
	MsgAmountPositive      = "Amount must be a positive number"
	MsgAmountTooLarge      = "Amount is too large"
	MsgDateRequired        = "Date is required"
)

// MaxLabelLen is the longest category or sub-category, in characters.
const MaxLabelLen = 100

// maxAmount is the exclusive upper bound of an amount with two decimals in
// DECIMAL(19,2).
var maxAmount = decimal.New(1, 17)

// ExpenseStore persists expenses.  Lookups, updates and deletes are scoped
// to an owner and report repository.ErrExpenseNotFound otherwise.
type ExpenseStore interface {
	Create(ctx context.Context, e *model.Expense) error
	GetByIDAndOwner(ctx context.Context, id, ownerID uint64) (*model.Expense, error)
	ListByOwner(ctx context.Context, ownerID uint64) ([]model.Expense, error)
	Update(ctx context.Context, e *model.Expense) error
	DeleteByIDAndOwner(ctx context.Context, id, ownerID uint64) error
}

// OwnerStore resolves owners of new expenses.
type OwnerStore interface {
	GetByID(ctx context.Context, id uint64) (*model.User, error)
}

// ListInvalidator drops the cached lists of an owner.
type ListInvalidator interface {
	Invalidate(ctx context.Context, ownerID uint64) error
}

// ListCache caches the list projection per owner.  Lists are stored under a
// generation that Invalidate advances, so a load that overlapped a write
// never becomes visible.
type ListCache interface {
	ListInvalidator
	Generation(ctx context.Context, ownerID uint64) (uint64, error)
	GetList(ctx context.Context, ownerID, gen uint64) ([]model.Expense, bool, error)
	SetList(ctx context.Context, ownerID, gen uint64, list []model.Expense) error
}

// EventPublisher delivers expense events after a successful write.
type EventPublisher interface {
	Publish(ctx context.Context, ev queue.ExpenseEvent) error
}

// ExpenseOption configures optional collaborators of an ExpenseService.
type ExpenseOption func(*ExpenseService)

// WithListCache serves List from c.
func WithListCache(c ListCache) ExpenseOption {
	return func(s *ExpenseService) { s.cache = c }
}

// WithEvents publishes an event after every write.
func WithEvents(p EventPublisher) ExpenseOption {
	return func(s *ExpenseService) { s.events = p }
}

// ExpenseService implements expense CRUD restricted to the owner passed by
// the caller.  Records of other owners behave exactly like missing ones.
type ExpenseService struct {
	expenses ExpenseStore
	owners   OwnerStore
	cache    ListCache
	events   EventPublisher
	log      logging.Logger
	group    singleflight.Group
	now      func() time.Time
}

// NewExpenseService returns a service over expenses whose owners are
// resolved through owners.  Caching and events are off unless enabled by
// opts.
func NewExpenseService(expenses ExpenseStore, owners OwnerStore, log logging.Logger, opts ...ExpenseOption) *ExpenseService {
	s := &ExpenseService{expenses: expenses, owners: owners, log: log, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create stores a new expense for ownerID.
func (s *ExpenseService) Create(ctx context.Context, in model.ExpenseInput, ownerID uint64) (*model.Expense, error) {
	owner, err := s.owners.GetByID(ctx, ownerID)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, ErrOwnerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load owner: %w", err)
	}

	e := &model.Expense{
		Category:    strings.TrimSpace(in.Category),
		SubCategory: strings.TrimSpace(in.SubCategory),
		Description: strings.TrimSpace(in.Description),
		Amount:      in.Amount.Round(2),
		Date:        in.Date,
		Owner:       owner.Summary(),
	}
	verr := &ValidationError{}
	switch {
	case e.Category == "":
		verr.Add("category", MsgCategoryRequired)
	case utf8.RuneCountInString(e.Category) > MaxLabelLen:
		verr.Add("category", MsgCategoryTooLong)
	}
	switch {
	case e.SubCategory == "":
		verr.Add("subCategory", MsgSubCategoryRequired)
	case utf8.RuneCountInString(e.SubCategory) > MaxLabelLen:
		verr.Add("subCategory", MsgSubCategoryTooLong)
	}
	switch {
	case !e.Amount.IsPositive():
		verr.Add("amount", MsgAmountPositive)
	case e.Amount.GreaterThanOrEqual(maxAmount):
		verr.Add("amount", MsgAmountTooLarge)
	}
	if e.Date.IsZero() {
		verr.Add("date", MsgDateRequired)
	}
	if err := verr.orNil(); err != nil {
		return nil, err
	}

	if err := s.expenses.Create(ctx, e); err != nil {
		return nil, fmt.Errorf("create expense: %w", err)
	}
	s.log.Info(ctx, "expense created", "expense_id", e.ID, "user_id", ownerID)
	s.afterWrite(ctx, queue.ExpenseCreated, e)
	return e, nil
}

// List returns the expenses of ownerID in creation order.
func (s *ExpenseService) List(ctx context.Context, ownerID uint64) ([]model.Expense, error) {
	if s.cache == nil {
		return s.load(ctx, ownerID)
	}

	gen, err := s.cache.Generation(ctx, ownerID)
	if err != nil {
		s.log.Warn(ctx, "expense cache read failed", "user_id", ownerID, "error", err)
		return s.load(ctx, ownerID)
	}
	list, ok, err := s.cache.GetList(ctx, ownerID, gen)
	if err != nil {
		s.log.Warn(ctx, "expense cache read failed", "user_id", ownerID, "error", err)
	}
	if ok {
		return list, nil
	}

	// one load per owner and generation; it outlives the caller that started it
	shared := context.WithoutCancel(ctx)
	key := strconv.FormatUint(ownerID, 10) + ":" + strconv.FormatUint(gen, 10)
	ch := s.group.DoChan(key, func() (any, error) {
		list, err := s.load(shared, ownerID)
		if err != nil {
			return nil, err
		}
		if err := s.cache.SetList(shared, ownerID, gen, list); err != nil {
			s.log.Warn(shared, "expense cache write failed", "user_id", ownerID, "error", err)
		}
		return list, nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]model.Expense), nil
	}
}

func (s *ExpenseService) load(ctx context.Context, ownerID uint64) ([]model.Expense, error) {
	list, err := s.expenses.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	if list == nil {
		list = []model.Expense{}
	}
	return list, nil
}

// Get returns expense id if it belongs to ownerID.  A missing expense and a
// foreign one both yield ErrNotFound.
func (s *ExpenseService) Get(ctx context.Context, id, ownerID uint64) (*model.Expense, error) {
	e, err := s.expenses.GetByIDAndOwner(ctx, id, ownerID)
	if errors.Is(err, repository.ErrExpenseNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load expense: %w", err)
	}
	return e, nil
}

// Update applies the present fields of patch.  Blank category and
// sub-category values are ignored.
func (s *ExpenseService) Update(ctx context.Context, id, ownerID uint64, patch model.ExpensePatch) (*model.Expense, error) {
	e, err := s.Get(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}

	if patch.Amount != nil {
		switch a := patch.Amount.Round(2); {
		case !a.IsPositive():
			return nil, fieldError("amount", MsgAmountPositive)
		case a.GreaterThanOrEqual(maxAmount):
			return nil, fieldError("amount", MsgAmountTooLarge)
		}
	}
	if utf8.RuneCountInString(trimmed(patch.Category)) > MaxLabelLen {
		return nil, fieldError("category", MsgCategoryTooLong)
	}
	if utf8.RuneCountInString(trimmed(patch.SubCategory)) > MaxLabelLen {
		return nil, fieldError("subCategory", MsgSubCategoryTooLong)
	}
	if v := trimmed(patch.Category); v != "" {
		e.Category = v
	}
	if v := trimmed(patch.SubCategory); v != "" {
		e.SubCategory = v
	}
	if patch.Description != nil {
		e.Description = strings.TrimSpace(*patch.Description)
	}
	if patch.Amount != nil {
		e.Amount = patch.Amount.Round(2)
	}
	if patch.Date != nil && !patch.Date.IsZero() {
		e.Date = *patch.Date
	}

	if err := s.expenses.Update(ctx, e); err != nil {
		if errors.Is(err, repository.ErrExpenseNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update expense: %w", err)
	}
	s.log.Info(ctx, "expense updated", "expense_id", e.ID, "user_id", ownerID)
	s.afterWrite(ctx, queue.ExpenseUpdated, e)
	return e, nil
}

// Delete removes expense id if it belongs to ownerID.
func (s *ExpenseService) Delete(ctx context.Context, id, ownerID uint64) error {
	e, err := s.Get(ctx, id, ownerID)
	if err != nil {
		return err
	}
	if err := s.expenses.DeleteByIDAndOwner(ctx, e.ID, ownerID); err != nil {
		if errors.Is(err, repository.ErrExpenseNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("delete expense: %w", err)
	}
	s.log.Info(ctx, "expense deleted", "expense_id", e.ID, "user_id", ownerID)
	s.afterWrite(ctx, queue.ExpenseDeleted, e)
	return nil
}

// afterWrite drops the owner's cached list and publishes the event.  Neither
// step fails the write.
func (s *ExpenseService) afterWrite(ctx context.Context, typ string, e *model.Expense) {
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, e.Owner.ID); err != nil {
			s.log.Warn(ctx, "expense cache invalidation failed", "user_id", e.Owner.ID, "error", err)
		}
	}
	if s.events != nil {
		if err := s.events.Publish(ctx, queue.NewExpenseEvent(typ, e, s.now())); err != nil {
			s.log.Warn(ctx, "expense event publish failed", "type", typ, "expense_id", e.ID, "error", err)
		}
	}
}

func trimmed(p *string) string {
	if p == nil {
		return ""
	}
	return strings.TrimSpace(*p)
}
