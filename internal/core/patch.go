package core

import "strings"

// MovementPatch is a partial update of a movement. Nil fields are left unchanged.
// AccountName is resolved by the store; Apply never touches the account.
type MovementPatch struct {
	Date        *Date   `json:"date"`
	Amount      *Money  `json:"amount"`
	Category    *string `json:"category"`
	Subcategory *string `json:"subcategory"`
	Note        *string `json:"note"`
	AccountName *string `json:"account_name"`
}

func (p MovementPatch) IsEmpty() bool {
	return p.Date == nil && p.Amount == nil && p.Category == nil &&
		p.Subcategory == nil && p.Note == nil && p.AccountName == nil
}

func (p MovementPatch) Validate() error {
	if p.Date != nil {
		if err := p.Date.Validate(); err != nil {
			return err
		}
	}
	if p.Amount != nil {
		if err := p.Amount.Validate(); err != nil {
			return err
		}
	}
	if p.Category != nil && strings.TrimSpace(*p.Category) == "" {
		return ErrEmptyCategory
	}
	if p.AccountName != nil && strings.TrimSpace(*p.AccountName) == "" {
		return ErrEmptyName
	}
	return nil
}

// Apply merges the provided fields into m.
func (p MovementPatch) Apply(m Movement) Movement {
	if p.Date != nil {
		m.Date = *p.Date
	}
	if p.Amount != nil {
		m.Amount = *p.Amount
	}
	if p.Category != nil {
		m.Category = strings.TrimSpace(*p.Category)
	}
	if p.Subcategory != nil {
		m.Subcategory = *p.Subcategory
	}
	if p.Note != nil {
		m.Note = *p.Note
	}
	return m
}

// RecurringPatch is a partial update of a recurring obligation.
type RecurringPatch struct {
	Amount      *Money  `json:"amount"`
	NextDueDate *Date   `json:"next_due_date"`
	AccountName *string `json:"account_name"`
}

func (p RecurringPatch) IsEmpty() bool {
	return p.Amount == nil && p.NextDueDate == nil && p.AccountName == nil
}

func (p RecurringPatch) Validate() error {
	if p.Amount != nil {
		if err := p.Amount.Validate(); err != nil {
			return err
		}
	}
	if p.NextDueDate != nil {
		if err := p.NextDueDate.Validate(); err != nil {
			return err
		}
	}
	if p.AccountName != nil && strings.TrimSpace(*p.AccountName) == "" {
		return ErrEmptyName
	}
	return nil
}

// Apply merges amount and due date. A new due date also becomes the anchor day.
func (p RecurringPatch) Apply(r RecurringObligation) RecurringObligation {
	if p.Amount != nil {
		r.Amount = *p.Amount
	}
	if p.NextDueDate != nil {
		r.NextDueDate = *p.NextDueDate
		r.AnchorDay = p.NextDueDate.Day()
	}
	return r
}
