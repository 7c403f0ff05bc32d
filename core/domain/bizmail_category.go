package domain

// EmailCategory is the business category of an inbound email.
type EmailCategory string

const (
	CategoryInformationRequest  EmailCategory = "information_request"
	CategoryComplaint           EmailCategory = "complaint"
	CategoryRegulatoryRequest   EmailCategory = "regulatory_request"
	CategoryPartnershipProposal EmailCategory = "partnership_proposal"
	CategoryApprovalRequest     EmailCategory = "approval_request"
	CategoryNotification        EmailCategory = "notification"
	CategoryOther               EmailCategory = "other" // catch-all when no signal fires
)

// AllCategories lists categories in declaration order.
// Keyword score ties are broken by this order.
var AllCategories = []EmailCategory{
	CategoryInformationRequest,
	CategoryComplaint,
	CategoryRegulatoryRequest,
	CategoryPartnershipProposal,
	CategoryApprovalRequest,
	CategoryNotification,
	CategoryOther,
}

// IsValid reports whether c is a member of the closed category set.
func (c EmailCategory) IsValid() bool {
	for _, known := range AllCategories {
		if c == known {
			return true
		}
	}
	return false
}

// ParseCategory returns the category for s and whether it was recognized.
// Unrecognized values resolve to CategoryOther.
func ParseCategory(s string) (EmailCategory, bool) {
	c := EmailCategory(s)
	if c.IsValid() {
		return c, true
	}
	return CategoryOther, false
}

func (c EmailCategory) String() string {
	return string(c)
}
