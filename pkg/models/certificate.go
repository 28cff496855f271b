package models

import "time"

// Certificate attests that a provider is authorized for a set of
// capabilities. Validity is checked at booking time, never cached across
// runs.
type Certificate struct {
	Subject      string    `json:"subject"      validate:"required"`
	Issuer       string    `json:"issuer"`
	Capabilities []string  `json:"capabilities"`
	IssuedAt     time.Time `json:"issued_at"`
	ExpiresAt    time.Time `json:"expires_at"`
	Revoked      bool      `json:"revoked"`
}

func (c *Certificate) Valid(now time.Time) bool {
	if c.Revoked {
		return false
	}

	if !c.ExpiresAt.IsZero() && now.After(c.ExpiresAt) {
		return false
	}

	return true
}

func (c *Certificate) HasCapability(capability string) bool {
	for _, candidate := range c.Capabilities {
		if candidate == capability {
			return true
		}
	}

	return false
}

// Provider describes one registered service provider and the pool its
// trades settle against. Amplified providers pay a doubled tax rate.
type Provider struct {
	UUID         string   `json:"uuid"         validate:"required"`
	Name         string   `json:"name"`
	ServiceType  string   `json:"service_type"`
	Capabilities []string `json:"capabilities"`
	PoolID       string   `json:"pool_id"`
	Amplified    bool     `json:"amplified"`
}
