package services

import (
	"fmt"
	"math"

	"sirlizard/language-for-you/internal/config"
)

// Pricer assigns the payment amount of a new job from the document size:
// base + perKB * KB, clamped to [min, max] and rounded to cents.
type Pricer struct {
	base  float64
	perKB float64
	min   float64
	max   float64
}

func NewPricer(cfg config.PricingConfig) *Pricer {
	return &Pricer{base: cfg.Base, perKB: cfg.PerKB, min: cfg.Min, max: cfg.Max}
}

func (p *Pricer) Quote(sizeBytes int64) (float64, error) {
	if sizeBytes < 0 {
		return 0, fmt.Errorf("%w: size must not be negative", ErrValidation)
	}

	amount := p.base + p.perKB*float64(sizeBytes)/1024
	amount = math.Max(p.min, math.Min(p.max, amount))
	amount = math.Round(amount*100) / 100

	if amount <= 0 {
		return 0, fmt.Errorf("pricing produced non-positive amount %.2f", amount)
	}
	return amount, nil
}
