package model

import (
	"time"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// TimestampLayout is the wire format for loan dates (always UTC).
const TimestampLayout = "2006-01-02 15:04:05"

const (
	LoanOutstanding = true
	LoanReturned    = false
)

// DefaultLoanDuration applies to any loan type outside the policy table.
const DefaultLoanDuration = 7 * 24 * time.Hour

// loanDurations maps loan-type codes to borrowing periods: code N lends for N weeks.
var loanDurations = map[int]time.Duration{
	1:  1 * 7 * 24 * time.Hour,
	2:  2 * 7 * 24 * time.Hour,
	3:  3 * 7 * 24 * time.Hour,
	4:  4 * 7 * 24 * time.Hour,
	5:  5 * 7 * 24 * time.Hour,
	6:  6 * 7 * 24 * time.Hour,
	7:  7 * 7 * 24 * time.Hour,
	8:  8 * 7 * 24 * time.Hour,
	9:  9 * 7 * 24 * time.Hour,
	10: 10 * 7 * 24 * time.Hour,
}

// LoanDuration returns the borrowing period for a book's loan type.
// Unknown codes fall back to one week rather than failing.
func LoanDuration(loanType int) time.Duration {
	if d, ok := loanDurations[loanType]; ok {
		return d
	}
	return DefaultLoanDuration
}

type Loan struct {
	ID         int64     `db:"id"`
	UserID     int64     `db:"user_id"`
	BookID     int64     `db:"book_id"`
	LoanDate   time.Time `db:"loan_date"`
	ReturnDate time.Time `db:"return_date"` // due date
	LoanStatus bool      `db:"loan_status"` // true while outstanding
}

// NewLoan starts an outstanding loan of book at loanDate, due per the book's policy.
func NewLoan(userID int64, book *Book, loanDate time.Time) *Loan {
	loanDate = loanDate.UTC()
	return &Loan{
		UserID:     userID,
		BookID:     book.ID,
		LoanDate:   loanDate,
		ReturnDate: loanDate.Add(LoanDuration(book.LoanType)),
		LoanStatus: LoanOutstanding,
	}
}

func (l *Loan) Outstanding() bool {
	return l.LoanStatus == LoanOutstanding
}

// LoanUpdate is the administrative override; nil fields are left unchanged.
type LoanUpdate struct {
	BookID     *int64
	ReturnDate *time.Time
}

func (u LoanUpdate) Empty() bool {
	return u.BookID == nil && u.ReturnDate == nil
}

func (u LoanUpdate) Apply(loan *Loan) {
	if u.BookID != nil {
		loan.BookID = *u.BookID
	}
	if u.ReturnDate != nil {
		loan.ReturnDate = u.ReturnDate.UTC()
	}
}

// ParseTimestamp parses a loan date in TimestampLayout as UTC.
func ParseTimestamp(value string) (time.Time, error) {
	return time.ParseInLocation(TimestampLayout, value, time.UTC)
}

func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

type loanJSON struct {
	ID         int64  `json:"id"`
	UserID     int64  `json:"user_id"`
	BookID     int64  `json:"book_id"`
	LoanDate   string `json:"loan_date"`
	ReturnDate string `json:"return_date"`
	LoanStatus bool   `json:"loan_status"`
}

func (l Loan) MarshalJSON() ([]byte, error) {
	return json.Marshal(loanJSON{
		ID:         l.ID,
		UserID:     l.UserID,
		BookID:     l.BookID,
		LoanDate:   FormatTimestamp(l.LoanDate),
		ReturnDate: FormatTimestamp(l.ReturnDate),
		LoanStatus: l.LoanStatus,
	})
}
