package domain

import (
	"bizmail_server/pkg/apperr"
)

type Tone string

const (
	ToneFormal   Tone = "formal"
	ToneNeutral  Tone = "neutral"
	ToneFriendly Tone = "friendly"
)

type Purpose string

const (
	PurposeResponse     Purpose = "response"
	PurposeProposal     Purpose = "proposal"
	PurposeNotification Purpose = "notification"
	PurposeRefusal      Purpose = "refusal"
)

type Length string

const (
	LengthShort  Length = "short"
	LengthMedium Length = "medium"
	LengthLong   Length = "long"
)

type Audience string

const (
	AudienceColleague Audience = "colleague"
	AudienceManager   Audience = "manager"
	AudienceClient    Audience = "client"
	AudiencePartner   Audience = "partner"
	AudienceRegulator Audience = "regulator"
)

type AddressStyle string

const (
	AddressVy       AddressStyle = "vy"        // formal "Вы"
	AddressTy       AddressStyle = "ty"        // informal "ты"
	AddressFullName AddressStyle = "full_name" // name and patronymic
)

type Urgency string

const (
	UrgencyLow    Urgency = "low"
	UrgencyNormal Urgency = "normal"
	UrgencyHigh   Urgency = "high"
)

// StyleParameters controls how a reply is written.
type StyleParameters struct {
	Tone                      Tone         `json:"tone"`
	Purpose                   Purpose      `json:"purpose"`
	Length                    Length       `json:"length"`
	Audience                  Audience     `json:"audience"`
	AddressStyle              AddressStyle `json:"address_style"`
	Urgency                   Urgency      `json:"urgency"`
	IncludeFormalGreetings    bool         `json:"include_formal_greetings"`
	IncludeCorporatePhrases   bool         `json:"include_corporate_phrases"`
	IncludeGreetingAndSignoff bool         `json:"include_greeting_and_signoff"`
	ExtraDirectives           []string     `json:"extra_directives,omitempty"`
}

// DefaultStyleParameters returns the parameters used when the caller supplies none.
func DefaultStyleParameters() StyleParameters {
	return StyleParameters{
		Tone:                      ToneFormal,
		Purpose:                   PurposeResponse,
		Length:                    LengthMedium,
		Audience:                  AudienceClient,
		AddressStyle:              AddressVy,
		Urgency:                   UrgencyNormal,
		IncludeFormalGreetings:    true,
		IncludeCorporatePhrases:   true,
		IncludeGreetingAndSignoff: true,
	}
}

// BasicStyleParameters is the fallback used when style analysis fails.
// It differs from the request defaults in audience.
func BasicStyleParameters() StyleParameters {
	p := DefaultStyleParameters()
	p.Audience = AudienceColleague
	return p
}

// Validate checks every enumerated field. Values are never coerced.
func (p StyleParameters) Validate() error {
	switch p.Tone {
	case ToneFormal, ToneNeutral, ToneFriendly:
	default:
		return apperr.InvalidInput("tone", "must be one of formal, neutral, friendly")
	}
	switch p.Purpose {
	case PurposeResponse, PurposeProposal, PurposeNotification, PurposeRefusal:
	default:
		return apperr.InvalidInput("purpose", "must be one of response, proposal, notification, refusal")
	}
	switch p.Length {
	case LengthShort, LengthMedium, LengthLong:
	default:
		return apperr.InvalidInput("length", "must be one of short, medium, long")
	}
	switch p.Audience {
	case AudienceColleague, AudienceManager, AudienceClient, AudiencePartner, AudienceRegulator:
	default:
		return apperr.InvalidInput("audience", "must be one of colleague, manager, client, partner, regulator")
	}
	switch p.AddressStyle {
	case AddressVy, AddressTy, AddressFullName:
	default:
		return apperr.InvalidInput("address_style", "must be one of vy, ty, full_name")
	}
	switch p.Urgency {
	case UrgencyLow, UrgencyNormal, UrgencyHigh:
	default:
		return apperr.InvalidInput("urgency", "must be one of low, normal, high")
	}
	return nil
}
