package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nightcity/redsheet/internal/apperr"
	"github.com/nightcity/redsheet/internal/redsheet"
)

const (
	DemoGameMasterEmail = "gm@redsheet.demo"
	DemoPlayerEmail     = "solo@redsheet.demo"
	DemoPassword        = "preem-choom"
)

// SeedDemo creates a game master, a player with a character, and a campaign
// they share. Does nothing if the demo game master already exists.
func SeedDemo(ctx context.Context, logger *slog.Logger, deps Deps) error {
	gm, err := deps.Accounts.Register(ctx, redsheet.Registration{
		Email: DemoGameMasterEmail, Username: "fixer", Password: DemoPassword,
	})
	if code, _ := apperr.CodeOf(err); code == apperr.CodeEmailTaken {
		return nil
	}
	if err != nil {
		return fmt.Errorf("seeding game master: %w", err)
	}
	player, err := deps.Accounts.Register(ctx, redsheet.Registration{
		Email: DemoPlayerEmail, Username: "v", Password: DemoPassword,
	})
	if err != nil {
		return fmt.Errorf("seeding player: %w", err)
	}

	char, err := deps.Characters.Create(ctx, player.User.ID, redsheet.CharacterInput{
		Handle: "Razor",
		Role:   redsheet.RoleSolo,
		Stats: redsheet.Stats{
			Intelligence: 5, Reflexes: 8, Dexterity: 7, Technology: 4, Cool: 7,
			Willpower: 6, Luck: 5, Move: 6, Body: 8, Empathy: 6,
		},
		RoleAbility: redsheet.RoleAbility{Name: "Combat Awareness", Rank: 4},
		Eurodollars: 500,
	})
	if err != nil {
		return fmt.Errorf("seeding character: %w", err)
	}

	camp, err := deps.Campaigns.Create(ctx, gm.User.ID, redsheet.CampaignInput{
		Name:        "Night Market Blues",
		Description: "A fixer's job in Watson goes sideways.",
	})
	if err != nil {
		return fmt.Errorf("seeding campaign: %w", err)
	}
	camp, err = deps.Campaigns.GenerateInvite(ctx, camp.ID, gm.User.ID)
	if err != nil {
		return fmt.Errorf("seeding invite: %w", err)
	}
	if camp.InviteCode == nil {
		return errors.New("seeding invite: no code generated")
	}
	if _, err := deps.Campaigns.Join(ctx, *camp.InviteCode, player.User.ID); err != nil {
		return fmt.Errorf("seeding join: %w", err)
	}
	if _, err := deps.Campaigns.LinkCharacter(ctx, camp.ID, char.ID, player.User.ID); err != nil {
		return fmt.Errorf("seeding link: %w", err)
	}
	session := 1
	if _, err := deps.Campaigns.AddJournalEntry(ctx, camp.ID, gm.User.ID, redsheet.JournalEntryInput{
		Title:         "Session 1: The Job",
		Content:       "Padre offers eddies for a data shard lifted from a Tyger Claws courier.",
		Type:          redsheet.JournalSession,
		SessionNumber: &session,
	}); err != nil {
		return fmt.Errorf("seeding journal: %w", err)
	}

	logger.Info("seeded demo data", "campaign_id", camp.ID, "game_master", DemoGameMasterEmail, "player", DemoPlayerEmail)
	return nil
}
