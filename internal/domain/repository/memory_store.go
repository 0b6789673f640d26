package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"library_lending/internal/common"
	"library_lending/internal/domain/model"
)

// MemoryStore keeps users, books and loans in-process. It enforces the same
// uniqueness and restrict-delete rules as the Postgres schema and is used for
// local runs (STORE_DRIVER=memory) and tests.
type MemoryStore struct {
	mu sync.RWMutex

	users     map[int64]model.User
	userOrder []int64
	books     map[int64]model.Book
	bookOrder []int64
	loans     map[int64]model.Loan
	loanOrder []int64

	nextUserID int64
	nextBookID int64
	nextLoanID int64

	now func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users: make(map[int64]model.User),
		books: make(map[int64]model.Book),
		loans: make(map[int64]model.Loan),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func (m *MemoryStore) Users() UserRepository { return memUsers{m} }
func (m *MemoryStore) Books() BookRepository { return memBooks{m} }
func (m *MemoryStore) Loans() LoanRepository { return memLoans{m} }

func (m *MemoryStore) hasLoans(match func(model.Loan) bool) bool {
	for _, l := range m.loans {
		if match(l) {
			return true
		}
	}
	return false
}

func removeID(ids []int64, id int64) []int64 {
	out := ids[:0]
	for _, item := range ids {
		if item != id {
			out = append(out, item)
		}
	}
	return out
}

// users

type memUsers struct{ m *MemoryStore }

func (r memUsers) Create(_ context.Context, user *model.User) error {
	m := r.m
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.checkUserUnique(0, user.Username, user.Email); err != nil {
		return err
	}
	m.nextUserID++
	now := m.now()
	user.ID = m.nextUserID
	user.CreatedAt = now
	user.UpdatedAt = now
	m.users[user.ID] = *user
	m.userOrder = append(m.userOrder, user.ID)
	return nil
}

func (m *MemoryStore) checkUserUnique(selfID int64, username, email string) error {
	for id, u := range m.users {
		if id == selfID {
			continue
		}
		if u.Username == username {
			return common.ErrDuplicateUsername
		}
		if u.Email == email {
			return fmt.Errorf("user with given email already exists: %w", common.ErrConflict)
		}
	}
	return nil
}

func (r memUsers) FindByID(_ context.Context, id int64) (*model.User, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	u, ok := r.m.users[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return &u, nil
}

func (r memUsers) FindByUsername(_ context.Context, username string) (*model.User, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	for _, id := range r.m.userOrder {
		if u := r.m.users[id]; u.Username == username {
			return &u, nil
		}
	}
	return nil, common.ErrNotFound
}

func (r memUsers) List(_ context.Context) ([]model.User, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	out := make([]model.User, 0, len(r.m.userOrder))
	for _, id := range r.m.userOrder {
		out = append(out, r.m.users[id])
	}
	return out, nil
}

func (r memUsers) Update(_ context.Context, id int64, upd model.UserUpdate) (*model.User, error) {
	m := r.m
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	if upd.Empty() {
		return &u, nil
	}
	upd.Apply(&u)
	if err := m.checkUserUnique(id, u.Username, u.Email); err != nil {
		return nil, err
	}
	u.UpdatedAt = m.now()
	m.users[id] = u
	return &u, nil
}

func (r memUsers) SetAdmin(_ context.Context, id int64, isAdmin bool) error {
	m := r.m
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return common.ErrNotFound
	}
	u.IsAdmin = isAdmin
	u.UpdatedAt = m.now()
	m.users[id] = u
	return nil
}

func (r memUsers) Delete(_ context.Context, id int64) error {
	m := r.m
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return common.ErrNotFound
	}
	if m.hasLoans(func(l model.Loan) bool { return l.UserID == id }) {
		return fmt.Errorf("user still has loans on record: %w", common.ErrInUse)
	}
	delete(m.users, id)
	m.userOrder = removeID(m.userOrder, id)
	return nil
}

// books

type memBooks struct{ m *MemoryStore }

func (m *MemoryStore) checkTitleUnique(selfID int64, title string) error {
	for id, b := range m.books {
		if id != selfID && b.Title == title {
			return errDuplicateTitle
		}
	}
	return nil
}

func (r memBooks) Create(_ context.Context, book *model.Book) error {
	m := r.m
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.checkTitleUnique(0, book.Title); err != nil {
		return err
	}
	m.nextBookID++
	now := m.now()
	book.ID = m.nextBookID
	book.CreatedAt = now
	book.UpdatedAt = now
	m.books[book.ID] = *book
	m.bookOrder = append(m.bookOrder, book.ID)
	return nil
}

func (r memBooks) FindByID(_ context.Context, id int64) (*model.Book, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	b, ok := r.m.books[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return &b, nil
}

func (r memBooks) List(_ context.Context) ([]model.Book, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	out := make([]model.Book, 0, len(r.m.bookOrder))
	for _, id := range r.m.bookOrder {
		out = append(out, r.m.books[id])
	}
	return out, nil
}

func (r memBooks) Update(_ context.Context, id int64, upd model.BookUpdate) (*model.Book, error) {
	m := r.m
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.books[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	if upd.Empty() {
		return &b, nil
	}
	upd.Apply(&b)
	if err := m.checkTitleUnique(id, b.Title); err != nil {
		return nil, err
	}
	b.UpdatedAt = m.now()
	m.books[id] = b
	return &b, nil
}

func (r memBooks) Delete(_ context.Context, id int64) error {
	m := r.m
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.books[id]; !ok {
		return common.ErrNotFound
	}
	if m.hasLoans(func(l model.Loan) bool { return l.BookID == id }) {
		return fmt.Errorf("book still has loans on record: %w", common.ErrInUse)
	}
	delete(m.books, id)
	m.bookOrder = removeID(m.bookOrder, id)
	return nil
}

// loans

type memLoans struct{ m *MemoryStore }

func (r memLoans) Create(_ context.Context, loan *model.Loan, exclusive bool) error {
	m := r.m
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.books[loan.BookID]; !ok {
		return common.ErrBookNotFound
	}
	if _, ok := m.users[loan.UserID]; !ok {
		return common.ErrUserNotFound
	}
	if exclusive && m.hasLoans(func(l model.Loan) bool { return l.BookID == loan.BookID && l.Outstanding() }) {
		return common.ErrBookOnLoan
	}
	m.nextLoanID++
	loan.ID = m.nextLoanID
	m.loans[loan.ID] = *loan
	m.loanOrder = append(m.loanOrder, loan.ID)
	return nil
}

func (r memLoans) FindByID(_ context.Context, id int64) (*model.Loan, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	l, ok := r.m.loans[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return &l, nil
}

func (r memLoans) ListByUser(_ context.Context, userID int64) ([]model.Loan, error) {
	return r.list(func(l model.Loan) bool { return l.UserID == userID }), nil
}

func (r memLoans) List(_ context.Context) ([]model.Loan, error) {
	return r.list(func(model.Loan) bool { return true }), nil
}

func (r memLoans) list(match func(model.Loan) bool) []model.Loan {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	out := []model.Loan{}
	for _, id := range r.m.loanOrder {
		if l := r.m.loans[id]; match(l) {
			out = append(out, l)
		}
	}
	return out
}

func (r memLoans) MarkReturned(_ context.Context, id, userID int64) error {
	m := r.m
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.loans[id]
	if !ok || l.UserID != userID {
		return common.ErrNotFound
	}
	l.LoanStatus = model.LoanReturned
	m.loans[id] = l
	return nil
}

func (r memLoans) Update(_ context.Context, id int64, upd model.LoanUpdate, exclusive bool) (*model.Loan, error) {
	m := r.m
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.loans[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	if upd.BookID != nil && *upd.BookID != l.BookID {
		target := *upd.BookID
		if _, ok := m.books[target]; !ok {
			return nil, common.ErrBookNotFound
		}
		if exclusive && l.Outstanding() &&
			m.hasLoans(func(o model.Loan) bool { return o.ID != id && o.BookID == target && o.Outstanding() }) {
			return nil, common.ErrBookOnLoan
		}
	}
	upd.Apply(&l)
	m.loans[id] = l
	return &l, nil
}
