package domain

// listingLimits is the number of active listings each account type may hold.
// Unset account types fall through to zero.
var listingLimits = map[AccountType]int{
	AccountTypeIndividual: 0,
	AccountTypeAgent:      10,
	AccountTypeOwner:      25,
	AccountTypeDeveloper:  100,
}

// ListingLimit returns the listing quota derived from the account type.
func ListingLimit(t AccountType) int {
	return listingLimits[t]
}

// CanAddProperties reports whether u may create listings.
//
// A user whose account type is still unset passes this check. Onboarding is
// enforced by clients, and the unset case is kept as-is until that product
// decision is settled.
func CanAddProperties(u *User) bool {
	return u.AccountType != AccountTypeIndividual && u.AccountStatus == StatusActive
}

// UnderListingQuota reports whether u has room for one more listing.
func UnderListingQuota(u *User) bool {
	return u.ListingCount < u.ListingLimit
}

// NeedsOnboarding reports whether the user still has to pick an account type.
func NeedsOnboarding(u *User) bool {
	return u.AccountType == ""
}
