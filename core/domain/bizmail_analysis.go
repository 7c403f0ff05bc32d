package domain

// ExtractedInfo holds facts pulled out of an inbound email.
type ExtractedInfo struct {
	RequestEssence       string   `json:"request_essence"`
	ContactInfo          *string  `json:"contact_info"`
	RegulatoryReferences []string `json:"regulatory_references"`
	Requirements         []string `json:"requirements"`
	LegalRisks           []string `json:"legal_risks"`
}

// DetailedAnalysis is the full analysis result for one email.
type DetailedAnalysis struct {
	Category              EmailCategory   `json:"category"`
	Parameters            StyleParameters `json:"parameters"`
	ExtractedInfo         ExtractedInfo   `json:"extracted_info"`
	Department            string          `json:"department"`
	EstimatedSLADays      int             `json:"estimated_sla_days"`
	ExtractedDeadlineDays *int            `json:"extracted_deadline_days"`
}

// RecipientCheck reports whether a personal name was found in an email.
type RecipientCheck struct {
	HasName       bool    `json:"has_name"`
	RecipientName *string `json:"recipient_name"`
}
