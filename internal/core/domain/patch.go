package domain

import (
	"strings"
	"time"
)

// UserPatch is a partial profile update. Nil fields are left untouched.
type UserPatch struct {
	AccountType *AccountType
	FullName    *string
	PhoneNumber *string
}

// PatchResult reports what Apply changed.
type PatchResult struct {
	Changed            bool
	AccountTypeChanged bool
}

// Validate rejects values that would break the user record.
func (p UserPatch) Validate() error {
	var fields []FieldError
	if p.AccountType != nil && !p.AccountType.Valid() {
		fields = append(fields, FieldError{
			Field:   "accountType",
			Message: "accountType must be one of: individual owner agent developer",
			Value:   string(*p.AccountType),
		})
	}
	if p.FullName != nil && len(strings.TrimSpace(*p.FullName)) < 2 {
		fields = append(fields, FieldError{Field: "fullName", Message: "fullName must be at least 2 characters", Value: *p.FullName})
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// Apply merges the patch into u. The listing limit follows the account type.
func (p UserPatch) Apply(u *User, now time.Time) PatchResult {
	var res PatchResult
	if p.AccountType != nil && *p.AccountType != u.AccountType {
		u.AccountType = *p.AccountType
		u.ListingLimit = ListingLimit(u.AccountType)
		res.AccountTypeChanged = true
		res.Changed = true
	}
	if p.FullName != nil {
		if name := strings.TrimSpace(*p.FullName); name != u.FullName {
			u.FullName = name
			res.Changed = true
		}
	}
	if p.PhoneNumber != nil {
		if phone := strings.TrimSpace(*p.PhoneNumber); phone != u.PhoneNumber {
			u.PhoneNumber = phone
			res.Changed = true
		}
	}
	if res.Changed {
		u.UpdatedAt = now
	}
	return res
}
