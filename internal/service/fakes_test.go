package service

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"sync"

	"github.com/iliyamo/expense-tracker/internal/model"
	"github.com/iliyamo/expense-tracker/internal/queue"
	"github.com/iliyamo/expense-tracker/internal/repository"
)

type fakeUsers struct {
	mu     sync.Mutex
	byID   map[uint64]model.User
	nextID uint64
	// expenses, when set, loses the rows of deleted users
	expenses *fakeExpenses
	err      error
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{byID: map[uint64]model.User{}}
}

func (f *fakeUsers) Create(_ context.Context, u *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u.Email = repository.NormalizeEmail(u.Email)
	for _, existing := range f.byID {
		if existing.Email == u.Email {
			return repository.ErrEmailExists
		}
	}
	f.nextID++
	u.ID = f.nextID
	f.byID[u.ID] = *u
	return nil
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byID {
		if u.Email == repository.NormalizeEmail(email) {
			return &u, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (f *fakeUsers) GetByID(_ context.Context, id uint64) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return &u, nil
}

func (f *fakeUsers) UpdateProfile(_ context.Context, u *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[u.ID]; !ok {
		return repository.ErrUserNotFound
	}
	for id, existing := range f.byID {
		if id != u.ID && existing.Email == u.Email {
			return repository.ErrEmailExists
		}
	}
	f.byID[u.ID] = *u
	return nil
}

func (f *fakeUsers) Delete(_ context.Context, id uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if _, ok := f.byID[id]; !ok {
		return repository.ErrUserNotFound
	}
	if f.expenses != nil {
		f.expenses.deleteOwner(id)
	}
	delete(f.byID, id)
	return nil
}

type fakeExpenses struct {
	mu     sync.Mutex
	rows   map[uint64]model.Expense
	nextID uint64
	lists  int
	err    error
	// afterRead runs once ListByOwner has read its rows, outside the lock
	afterRead func()
}

func newFakeExpenses() *fakeExpenses {
	return &fakeExpenses{rows: map[uint64]model.Expense{}}
}

func (f *fakeExpenses) Create(_ context.Context, e *model.Expense) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.nextID++
	e.ID = f.nextID
	f.rows[e.ID] = *e
	return nil
}

func (f *fakeExpenses) GetByIDAndOwner(_ context.Context, id, ownerID uint64) (*model.Expense, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.rows[id]
	if !ok || e.Owner.ID != ownerID {
		return nil, repository.ErrExpenseNotFound
	}
	return &e, nil
}

func (f *fakeExpenses) ListByOwner(ctx context.Context, ownerID uint64) ([]model.Expense, error) {
	f.mu.Lock()
	f.lists++
	if f.err != nil {
		f.mu.Unlock()
		return nil, f.err
	}
	var out []model.Expense
	for _, e := range f.rows {
		if e.Owner.ID == ownerID {
			out = append(out, e)
		}
	}
	hook := f.afterRead
	f.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if hook != nil {
		hook()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (f *fakeExpenses) setAfterRead(hook func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.afterRead = hook
}

func (f *fakeExpenses) loads() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lists
}

func (f *fakeExpenses) deleteOwner(ownerID uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, e := range f.rows {
		if e.Owner.ID == ownerID {
			delete(f.rows, id)
		}
	}
}

func (f *fakeExpenses) Update(_ context.Context, e *model.Expense) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cur, ok := f.rows[e.ID]
	if !ok || cur.Owner.ID != e.Owner.ID {
		return repository.ErrExpenseNotFound
	}
	f.rows[e.ID] = *e
	return nil
}

func (f *fakeExpenses) DeleteByIDAndOwner(_ context.Context, id, ownerID uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cur, ok := f.rows[id]
	if !ok || cur.Owner.ID != ownerID {
		return repository.ErrExpenseNotFound
	}
	delete(f.rows, id)
	return nil
}

// stubHasher "hashes" by prefixing and counts verifications.
type stubHasher struct {
	verifies int
}

func (h *stubHasher) Hash(plain string) (string, error) { return "hashed:" + plain, nil }

func (h *stubHasher) Verify(plain, hash string) bool {
	h.verifies++
	return hash == "hashed:"+plain
}

type stubTokens struct{}

func (stubTokens) Issue(u *model.User) (string, error) {
	return "token-" + strconv.FormatUint(u.ID, 10), nil
}

type fakeCache struct {
	mu          sync.Mutex
	gens        map[uint64]uint64
	lists       map[string][]model.Expense
	invalidated []uint64
}

func newFakeCache() *fakeCache {
	return &fakeCache{gens: map[uint64]uint64{}, lists: map[string][]model.Expense{}}
}

func cacheKey(ownerID, gen uint64) string {
	return strconv.FormatUint(ownerID, 10) + "/" + strconv.FormatUint(gen, 10)
}

func (c *fakeCache) Generation(_ context.Context, ownerID uint64) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gens[ownerID], nil
}

func (c *fakeCache) GetList(_ context.Context, ownerID, gen uint64) ([]model.Expense, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	l, ok := c.lists[cacheKey(ownerID, gen)]
	return l, ok, nil
}

func (c *fakeCache) SetList(_ context.Context, ownerID, gen uint64, list []model.Expense) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lists[cacheKey(ownerID, gen)] = list
	return nil
}

func (c *fakeCache) Invalidate(_ context.Context, ownerID uint64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gens[ownerID]++
	c.invalidated = append(c.invalidated, ownerID)
	return nil
}

func (c *fakeCache) invalidations() []uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]uint64(nil), c.invalidated...)
}

type fakePublisher struct {
	events []queue.ExpenseEvent
	err    error
}

func (p *fakePublisher) Publish(_ context.Context, ev queue.ExpenseEvent) error {
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, ev)
	return nil
}

var errBoom = errors.New("boom")
