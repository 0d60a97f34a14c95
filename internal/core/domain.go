package core

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Kind distinguishes the two movement variants.
type Kind string

const (
	KindExpense Kind = "expense"
	KindIncome  Kind = "income"
)

// Frequency is the repetition of a recurring obligation.
type Frequency string

const (
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
)

// Period is the bucket granularity of a category trend.
type Period string

const (
	PeriodMonthly Period = "monthly"
	PeriodYearly  Period = "yearly"
)

// ParseKind accepts "expense" or "income" in any case.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindExpense, KindIncome:
		return k, nil
	}
	return "", Invalidf("unknown movement kind %q", s)
}

// Sign is the direction a movement of this kind moves its account balance.
func (k Kind) Sign() int64 {
	if k == KindIncome {
		return 1
	}
	return -1
}

// ParseFrequency accepts "weekly" or "monthly" in any case.
func ParseFrequency(s string) (Frequency, error) {
	switch f := Frequency(strings.ToLower(strings.TrimSpace(s))); f {
	case FrequencyWeekly, FrequencyMonthly:
		return f, nil
	}
	return "", Invalidf("unknown frequency %q", s)
}

// ParsePeriod accepts "monthly" or "yearly"; empty means monthly.
func ParsePeriod(s string) (Period, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return PeriodMonthly, nil
	}
	switch p := Period(s); p {
	case PeriodMonthly, PeriodYearly:
		return p, nil
	}
	return "", Invalidf("unknown period %q", s)
}

type (
	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	Account struct {
		ID             int64  `json:"id"`
		Name           string `json:"name"`
		Kind           string `json:"kind"`
		InitialBalance Money  `json:"initial_balance"`
		Balance        Money  `json:"balance"`
	}

	// Movement is a single expense or income row.
	Movement struct {
		ID          int64
		Kind        Kind
		Date        Date
		Amount      Money
		Category    string // source for income
		Subcategory string
		Note        string
		AccountID   int64
		AccountName string
	}

	// NewMovement is the input for recording a movement against a named account.
	NewMovement struct {
		Kind        Kind
		Date        Date
		Amount      Money
		Category    string
		Subcategory string
		Note        string
		AccountName string
	}

	RecurringObligation struct {
		ID               int64     `json:"id"`
		Kind             Kind      `json:"kind"`
		Amount           Money     `json:"amount"`
		CategoryOrSource string    `json:"category_or_source"`
		Subcategory      string    `json:"subcategory"`
		Note             string    `json:"note"`
		Frequency        Frequency `json:"frequency"`
		NextDueDate      Date      `json:"next_due_date"`
		AnchorDay        int       `json:"anchor_day"`
		AccountID        int64     `json:"account_id"`
		AccountName      string    `json:"account_name"`
	}

	NewRecurring struct {
		Kind             Kind
		Amount           Money
		CategoryOrSource string
		Subcategory      string
		Note             string
		Frequency        Frequency
		StartDate        Date
		AccountName      string
	}

	Budget struct {
		Category  string    `json:"category"`
		MonthYear MonthYear `json:"month_year"`
		Amount    Money     `json:"amount"`
	}
)

// Day returns the day of the month
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year
func (d Date) Year() int {
	return d.Time.Year()
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (a Account) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return ErrEmptyName
	}
	return nil
}

func (n NewMovement) Validate() error {
	if _, err := ParseKind(string(n.Kind)); err != nil {
		return err
	}
	if err := n.Date.Validate(); err != nil {
		return err
	}
	if err := n.Amount.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(n.Category) == "" {
		return ErrEmptyCategory
	}
	if strings.TrimSpace(n.AccountName) == "" {
		return ErrEmptyName
	}
	return nil
}

// Movement returns the row to insert once the account has been resolved.
func (n NewMovement) Movement(accountID int64) Movement {
	return Movement{
		Kind:        n.Kind,
		Date:        n.Date,
		Amount:      n.Amount,
		Category:    strings.TrimSpace(n.Category),
		Subcategory: n.Subcategory,
		Note:        n.Note,
		AccountID:   accountID,
	}
}

// Delta is the signed balance change this movement applies to its account.
func (m Movement) Delta() int64 {
	return m.Kind.Sign() * m.Amount.Cents
}

type movementJSON struct {
	ID          int64  `json:"id"`
	Kind        Kind   `json:"kind"`
	Date        Date   `json:"date"`
	Amount      Money  `json:"amount"`
	Category    string `json:"category,omitempty"`
	Source      string `json:"source,omitempty"`
	Subcategory string `json:"subcategory"`
	Note        string `json:"note"`
	AccountID   int64  `json:"account_id"`
	AccountName string `json:"account_name,omitempty"`
}

// MarshalJSON names the label "source" for income and "category" for expenses.
func (m Movement) MarshalJSON() ([]byte, error) {
	v := movementJSON{
		ID: m.ID, Kind: m.Kind, Date: m.Date, Amount: m.Amount,
		Subcategory: m.Subcategory, Note: m.Note,
		AccountID: m.AccountID, AccountName: m.AccountName,
	}
	if m.Kind == KindIncome {
		v.Source = m.Category
	} else {
		v.Category = m.Category
	}
	return json.Marshal(v)
}

func (n NewRecurring) Validate() error {
	if _, err := ParseKind(string(n.Kind)); err != nil {
		return err
	}
	if _, err := ParseFrequency(string(n.Frequency)); err != nil {
		return err
	}
	if err := n.Amount.Validate(); err != nil {
		return err
	}
	if err := n.StartDate.Validate(); err != nil {
		return fmt.Errorf("start date: %w", err)
	}
	if strings.TrimSpace(n.CategoryOrSource) == "" {
		return ErrEmptyCategory
	}
	if strings.TrimSpace(n.AccountName) == "" {
		return ErrEmptyName
	}
	return nil
}

// Obligation returns the obligation to insert; the start date is the first due date
// and fixes the anchor day for monthly advancement.
func (n NewRecurring) Obligation(accountID int64) RecurringObligation {
	return RecurringObligation{
		Kind:             n.Kind,
		Amount:           n.Amount,
		CategoryOrSource: strings.TrimSpace(n.CategoryOrSource),
		Subcategory:      n.Subcategory,
		Note:             n.Note,
		Frequency:        n.Frequency,
		NextDueDate:      n.StartDate,
		AnchorDay:        n.StartDate.Day(),
		AccountID:        accountID,
	}
}

// Occurrence is the movement materialized for one due date.
func (r RecurringObligation) Occurrence(on Date) Movement {
	return Movement{
		Kind:        r.Kind,
		Date:        on,
		Amount:      r.Amount,
		Category:    r.CategoryOrSource,
		Subcategory: r.Subcategory,
		Note:        r.Note,
		AccountID:   r.AccountID,
		AccountName: r.AccountName,
	}
}

func (b Budget) Validate() error {
	if strings.TrimSpace(b.Category) == "" {
		return ErrEmptyCategory
	}
	if b.MonthYear.Year == 0 {
		return Invalidf("month_year required")
	}
	return b.Amount.Validate()
}

func (m *Movement) UnmarshalJSON(b []byte) error {
	var v movementJSON
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*m = Movement{
		ID: v.ID, Kind: v.Kind, Date: v.Date, Amount: v.Amount,
		Category: v.Category, Subcategory: v.Subcategory, Note: v.Note,
		AccountID: v.AccountID, AccountName: v.AccountName,
	}
	if v.Kind == KindIncome {
		m.Category = v.Source
	}
	return nil
}
