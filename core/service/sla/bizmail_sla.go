// Package sla maps an analyzed email to a reply turnaround in business days.
package sla

import (
	"strings"

	"bizmail_server/core/domain"
)

// Markers meaning the sender expects no reply.
var noResponseMarkers = []string{
	"ответ не требуется",
	"ответ на настоящее уведомление не требуется",
	"ответ не обязателен",
	"уведомление",
	"информирование",
	"для сведения",
}

// NoResponseRequired reports whether body carries a "no reply needed" marker.
func NoResponseRequired(body string) bool {
	lowered := strings.ToLower(body)
	for _, m := range noResponseMarkers {
		if strings.Contains(lowered, m) {
			return true
		}
	}
	return false
}

type rule struct {
	match func(c domain.EmailCategory, u domain.Urgency, a domain.Audience, body string) bool
	days  int
}

// Evaluated top to bottom; first match wins.
var rules = []rule{
	{func(c domain.EmailCategory, _ domain.Urgency, _ domain.Audience, body string) bool {
		return c == domain.CategoryNotification && NoResponseRequired(body)
	}, 0},
	{func(c domain.EmailCategory, _ domain.Urgency, _ domain.Audience, _ string) bool {
		return c == domain.CategoryNotification
	}, 1},
	{func(c domain.EmailCategory, _ domain.Urgency, a domain.Audience, _ string) bool {
		return c == domain.CategoryRegulatoryRequest || a == domain.AudienceRegulator
	}, 3},
	{func(c domain.EmailCategory, _ domain.Urgency, _ domain.Audience, _ string) bool {
		return c == domain.CategoryComplaint
	}, 3},
	{func(_ domain.EmailCategory, u domain.Urgency, a domain.Audience, _ string) bool {
		return u == domain.UrgencyHigh && (a == domain.AudienceClient || a == domain.AudiencePartner)
	}, 3},
	{func(c domain.EmailCategory, u domain.Urgency, a domain.Audience, _ string) bool {
		return c == domain.CategoryInformationRequest && u == domain.UrgencyHigh && a == domain.AudienceClient
	}, 3},
	{func(c domain.EmailCategory, _ domain.Urgency, _ domain.Audience, _ string) bool {
		return c == domain.CategoryPartnershipProposal
	}, 10},
	{func(c domain.EmailCategory, _ domain.Urgency, _ domain.Audience, _ string) bool {
		return c == domain.CategoryApprovalRequest
	}, 10},
	{func(_ domain.EmailCategory, u domain.Urgency, a domain.Audience, _ string) bool {
		return a == domain.AudiencePartner && u == domain.UrgencyNormal
	}, 10},
	{func(c domain.EmailCategory, _ domain.Urgency, a domain.Audience, _ string) bool {
		return c == domain.CategoryInformationRequest && a == domain.AudiencePartner
	}, 10},
	{func(_ domain.EmailCategory, u domain.Urgency, a domain.Audience, _ string) bool {
		return u == domain.UrgencyNormal && a == domain.AudienceClient
	}, 5},
	{func(_ domain.EmailCategory, u domain.Urgency, _ domain.Audience, _ string) bool {
		return u == domain.UrgencyNormal
	}, 7},
	{func(_ domain.EmailCategory, u domain.Urgency, _ domain.Audience, _ string) bool {
		return u == domain.UrgencyHigh
	}, 3},
}

const defaultDays = 5

// Estimate returns the reply SLA in business days.
func Estimate(category domain.EmailCategory, urgency domain.Urgency, audience domain.Audience, body string) int {
	for _, r := range rules {
		if r.match(category, urgency, audience, body) {
			return r.days
		}
	}
	return defaultDays
}
