package service

import (
	"context"
	"errors"
	"time"

	"github.com/nightcity/redsheet/internal/apperr"
	"github.com/nightcity/redsheet/internal/redsheet"
	"github.com/nightcity/redsheet/internal/store"
)

type CharacterStore interface {
	CreateCharacter(ctx context.Context, c redsheet.Character) error
	GetCharacter(ctx context.Context, id string) (redsheet.Character, error)
	ListCharactersByUser(ctx context.Context, userID string) ([]redsheet.Character, error)
	ModifyCharacter(ctx context.Context, id string, fn func(*redsheet.Character) error) (redsheet.Character, error)
	DeleteCharacter(ctx context.Context, id string) error
	DamageCharacter(ctx context.Context, id string, amount int, now time.Time) (redsheet.Character, error)
	HealCharacter(ctx context.Context, id string, amount, maxHP int, now time.Time) (redsheet.Character, error)
	SpendLuck(ctx context.Context, id string, amount int, now time.Time) (redsheet.Character, error)
	RestoreLuck(ctx context.Context, id string, now time.Time) (redsheet.Character, error)
}

// Characters manages character sheets on behalf of their owners.
type Characters struct {
	store CharacterStore
	env
}

func NewCharacters(s CharacterStore) *Characters {
	return &Characters{store: s, env: defaultEnv()}
}

func (s *Characters) Create(ctx context.Context, userID string, in redsheet.CharacterInput) (redsheet.Character, error) {
	c, err := redsheet.NewCharacter(s.newID(), userID, in, s.now())
	if err != nil {
		return redsheet.Character{}, err
	}
	if err := s.store.CreateCharacter(ctx, c); err != nil {
		return redsheet.Character{}, translate(err, "character")
	}
	return c, nil
}

func (s *Characters) List(ctx context.Context, userID string) ([]redsheet.Character, error) {
	list, err := s.store.ListCharactersByUser(ctx, userID)
	return list, translate(err, "characters")
}

// Get returns the character if userID owns it.
func (s *Characters) Get(ctx context.Context, id, userID string) (redsheet.Character, error) {
	c, err := s.store.GetCharacter(ctx, id)
	if err != nil {
		return redsheet.Character{}, translate(err, "character")
	}
	if !c.OwnedBy(userID) {
		return redsheet.Character{}, apperr.Forbidden("you do not own this character")
	}
	return c, nil
}

// Update merges p into the character and recomputes its derived stats.
func (s *Characters) Update(ctx context.Context, id, userID string, p redsheet.CharacterPatch) (redsheet.Character, error) {
	now := s.now()
	c, err := s.store.ModifyCharacter(ctx, id, func(c *redsheet.Character) error {
		if !c.OwnedBy(userID) {
			return apperr.Forbidden("you do not own this character")
		}
		return c.Apply(p, now)
	})
	if err != nil {
		return redsheet.Character{}, translate(err, "character")
	}
	return c, nil
}

func (s *Characters) Delete(ctx context.Context, id, userID string) error {
	if _, err := s.Get(ctx, id, userID); err != nil {
		return err
	}
	return translate(s.store.DeleteCharacter(ctx, id), "character")
}

func (s *Characters) Damage(ctx context.Context, id, userID string, amount int) (redsheet.Character, error) {
	c, err := s.Get(ctx, id, userID)
	if err != nil {
		return redsheet.Character{}, err
	}
	if err := c.ApplyDamage(amount); err != nil {
		return redsheet.Character{}, err
	}
	c, err = s.store.DamageCharacter(ctx, id, amount, s.now())
	return c, translate(err, "character")
}

// Heal caps at the maximum derived from the character's current stats.
func (s *Characters) Heal(ctx context.Context, id, userID string, amount int) (redsheet.Character, error) {
	c, err := s.Get(ctx, id, userID)
	if err != nil {
		return redsheet.Character{}, err
	}
	if err := c.ApplyHeal(amount); err != nil {
		return redsheet.Character{}, err
	}
	maxHP := redsheet.ComputeMaxHitPoints(c.Stats.Body, c.Stats.Willpower)
	c, err = s.store.HealCharacter(ctx, id, amount, maxHP, s.now())
	return c, translate(err, "character")
}

func (s *Characters) SpendLuck(ctx context.Context, id, userID string, amount int) (redsheet.Character, error) {
	c, err := s.Get(ctx, id, userID)
	if err != nil {
		return redsheet.Character{}, err
	}
	if err := c.SpendLuck(amount); err != nil {
		return redsheet.Character{}, err
	}
	c, err = s.store.SpendLuck(ctx, id, amount, s.now())
	if errors.Is(err, store.ErrConditionFailed) {
		// another spend drained the pool first
		return redsheet.Character{}, apperr.ErrInsufficientLuck
	}
	return c, translate(err, "character")
}

func (s *Characters) RestoreLuck(ctx context.Context, id, userID string) (redsheet.Character, error) {
	if _, err := s.Get(ctx, id, userID); err != nil {
		return redsheet.Character{}, err
	}
	c, err := s.store.RestoreLuck(ctx, id, s.now())
	return c, translate(err, "character")
}
