package sla

import (
	"testing"

	"bizmail_server/core/domain"
)

func TestEstimate(t *testing.T) {
	tests := []struct {
		name     string
		category domain.EmailCategory
		urgency  domain.Urgency
		audience domain.Audience
		body     string
		want     int
	}{
		{"notification no reply", domain.CategoryNotification, domain.UrgencyNormal, domain.AudienceClient, "Ответ на настоящее уведомление не требуется", 0},
		{"notification", domain.CategoryNotification, domain.UrgencyHigh, domain.AudienceClient, "Изменился график работы", 1},
		{"regulatory", domain.CategoryRegulatoryRequest, domain.UrgencyLow, domain.AudienceClient, "", 3},
		{"regulator audience", domain.CategoryOther, domain.UrgencyLow, domain.AudienceRegulator, "", 3},
		{"complaint", domain.CategoryComplaint, domain.UrgencyNormal, domain.AudienceClient, "", 3},
		{"urgent partner", domain.CategoryOther, domain.UrgencyHigh, domain.AudiencePartner, "", 3},
		{"partnership", domain.CategoryPartnershipProposal, domain.UrgencyLow, domain.AudienceManager, "", 10},
		{"approval", domain.CategoryApprovalRequest, domain.UrgencyNormal, domain.AudienceClient, "", 10},
		{"partner normal", domain.CategoryOther, domain.UrgencyNormal, domain.AudiencePartner, "", 10},
		{"info from partner", domain.CategoryInformationRequest, domain.UrgencyLow, domain.AudiencePartner, "", 10},
		{"client normal", domain.CategoryInformationRequest, domain.UrgencyNormal, domain.AudienceClient, "", 5},
		{"other normal", domain.CategoryOther, domain.UrgencyNormal, domain.AudienceManager, "", 7},
		{"urgent colleague", domain.CategoryOther, domain.UrgencyHigh, domain.AudienceColleague, "", 3},
		{"default", domain.CategoryOther, domain.UrgencyLow, domain.AudienceColleague, "", 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Estimate(tt.category, tt.urgency, tt.audience, tt.body); got != tt.want {
				t.Errorf("Estimate() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestNoResponseRequired(t *testing.T) {
	if !NoResponseRequired("Для сведения.") {
		t.Error("expected marker to be detected")
	}
	if NoResponseRequired("Просим ответить") {
		t.Error("unexpected marker")
	}
}
