package redsheet

import "github.com/nightcity/redsheet/internal/apperr"

// ComputeMaxHitPoints returns 10 + 5*ceil((body+willpower)/2).
func ComputeMaxHitPoints(body, willpower int) int {
	return 10 + 5*ceilHalf(body+willpower)
}

// ComputeSeriouslyWoundedThreshold returns ceil(maxHP/2).
func ComputeSeriouslyWoundedThreshold(maxHP int) int {
	return ceilHalf(maxHP)
}

// ComputeDeathSave equals BODY.
func ComputeDeathSave(body int) int {
	return body
}

// ComputeHumanity returns EMP*10 minus the humanity loss of every installed
// piece of cyberware. The result is not floored; negative humanity is kept.
func ComputeHumanity(empathy int, cyberware []Cyberware) int {
	loss := 0
	for _, cw := range cyberware {
		loss += cw.HumanityLoss
	}
	return empathy*10 - loss
}

// Recompute refreshes every derived field from Stats and Cyberware.
func (c *Character) Recompute() {
	c.MaxHitPoints = ComputeMaxHitPoints(c.Stats.Body, c.Stats.Willpower)
	c.SeriouslyWoundedThreshold = ComputeSeriouslyWoundedThreshold(c.MaxHitPoints)
	c.DeathSave = ComputeDeathSave(c.Stats.Body)
	c.Humanity = ComputeHumanity(c.Stats.Empathy, c.Cyberware)
}

// ApplyDamage lowers current hit points, flooring at zero.
func (c *Character) ApplyDamage(amount int) error {
	if amount < 0 {
		return apperr.Invalid("damage amount must not be negative")
	}
	c.CurrentHitPoints = max(0, c.CurrentHitPoints-amount)
	return nil
}

// ApplyHeal raises current hit points up to the maximum derived from the
// current stats, not the stored MaxHitPoints.
func (c *Character) ApplyHeal(amount int) error {
	if amount < 0 {
		return apperr.Invalid("heal amount must not be negative")
	}
	c.CurrentHitPoints = min(ComputeMaxHitPoints(c.Stats.Body, c.Stats.Willpower), c.CurrentHitPoints+amount)
	return nil
}

// SpendLuck removes amount from the luck pool.
func (c *Character) SpendLuck(amount int) error {
	if amount < 0 {
		return apperr.Invalid("luck amount must not be negative")
	}
	if amount > c.CurrentLuck {
		return apperr.ErrInsufficientLuck
	}
	c.CurrentLuck -= amount
	return nil
}

// RestoreLuck refills the luck pool to the LUCK stat.
func (c *Character) RestoreLuck() {
	c.CurrentLuck = c.Stats.Luck
}

func ceilHalf(n int) int {
	return (n + 1) / 2
}
