// Package redsheet defines the Cyberpunk Red domain: character sheets and the
// derived-stat rules, campaigns with their invite lifecycle, and journal entries.
// It depends on nothing but the error taxonomy.
package redsheet

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/nightcity/redsheet/internal/apperr"
)

type Role string

const (
	RoleSolo      Role = "SOLO"
	RoleNetrunner Role = "NETRUNNER"
	RoleTech      Role = "TECH"
	RoleMedtech   Role = "MEDTECH"
	RoleMedia     Role = "MEDIA"
	RoleExec      Role = "EXEC"
	RoleLawman    Role = "LAWMAN"
	RoleFixer     Role = "FIXER"
	RoleNomad     Role = "NOMAD"
	RoleRockerboy Role = "ROCKERBOY"
)

var Roles = []Role{
	RoleSolo, RoleNetrunner, RoleTech, RoleMedtech, RoleMedia,
	RoleExec, RoleLawman, RoleFixer, RoleNomad, RoleRockerboy,
}

type CyberwareType string

const (
	CyberwareFashionware  CyberwareType = "FASHIONWARE"
	CyberwareNeuralware   CyberwareType = "NEURALWARE"
	CyberwareCyberoptics  CyberwareType = "CYBEROPTICS"
	CyberwareCyberaudio   CyberwareType = "CYBERAUDIO"
	CyberwareInternalBody CyberwareType = "INTERNAL_BODY"
	CyberwareExternalBody CyberwareType = "EXTERNAL_BODY"
	CyberwareCyberarm     CyberwareType = "CYBERARM"
	CyberwareCyberleg     CyberwareType = "CYBERLEG"
	CyberwareBorgware     CyberwareType = "BORGWARE"
)

var cyberwareTypes = []CyberwareType{
	CyberwareFashionware, CyberwareNeuralware, CyberwareCyberoptics, CyberwareCyberaudio,
	CyberwareInternalBody, CyberwareExternalBody, CyberwareCyberarm, CyberwareCyberleg,
	CyberwareBorgware,
}

type Installation string

const (
	InstallMall     Installation = "MALL"
	InstallClinic   Installation = "CLINIC"
	InstallHospital Installation = "HOSPITAL"
)

type WeaponType string

const (
	WeaponMelee  WeaponType = "MELEE"
	WeaponRanged WeaponType = "RANGED"
	WeaponExotic WeaponType = "EXOTIC"
)

type ArmorType string

const (
	ArmorBody   ArmorType = "BODY"
	ArmorHead   ArmorType = "HEAD"
	ArmorShield ArmorType = "SHIELD"
)

// Stats are the ten base attributes of a character.
type Stats struct {
	Intelligence int `json:"intelligence"`
	Reflexes     int `json:"reflexes"`
	Dexterity    int `json:"dexterity"`
	Technology   int `json:"technology"`
	Cool         int `json:"cool"`
	Willpower    int `json:"willpower"`
	Luck         int `json:"luck"`
	Move         int `json:"move"`
	Body         int `json:"body"`
	Empathy      int `json:"empathy"`
}

type Skill struct {
	Name       string `json:"name"`
	LinkedStat string `json:"linkedStat"`
	Level      int    `json:"level"`
	IPSpent    *int   `json:"ipSpent,omitempty"`
}

type Cyberware struct {
	Name         string        `json:"name"`
	Type         CyberwareType `json:"type"`
	Installation Installation  `json:"installation"`
	Description  string        `json:"description"`
	HumanityLoss int           `json:"humanityLoss"`
	Cost         int           `json:"cost"`
	OptionSlots  *int          `json:"optionSlots,omitempty"`
	Foundational bool          `json:"foundational,omitempty"`
}

type Weapon struct {
	Name          string     `json:"name"`
	Type          WeaponType `json:"type"`
	Damage        string     `json:"damage"`
	ROF           int        `json:"rof"`
	Magazine      *int       `json:"magazine,omitempty"`
	Skill         string     `json:"skill,omitempty"`
	HandsRequired *int       `json:"handsRequired,omitempty"`
	Concealable   bool       `json:"concealable,omitempty"`
}

type Armor struct {
	Name          string    `json:"name"`
	Type          ArmorType `json:"type"`
	StoppingPower int       `json:"stoppingPower"`
	Penalty       *int      `json:"penalty,omitempty"`
}

type InventoryItem struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Quantity    int    `json:"quantity"`
	Cost        *int   `json:"cost,omitempty"`
	Category    string `json:"category,omitempty"`
}

type RoleAbility struct {
	Name            string   `json:"name"`
	Rank            int      `json:"rank"`
	Description     string   `json:"description,omitempty"`
	Specializations []string `json:"specializations,omitempty"`
}

type Lifepath struct {
	CulturalOrigin       string   `json:"culturalOrigin,omitempty"`
	Personality          string   `json:"personality,omitempty"`
	ClothingStyle        string   `json:"clothingStyle,omitempty"`
	Hairstyle            string   `json:"hairstyle,omitempty"`
	ValueMost            string   `json:"valueMost,omitempty"`
	FeelingsAboutPeople  string   `json:"feelingsAboutPeople,omitempty"`
	ValuedPerson         string   `json:"valuedPerson,omitempty"`
	ValuedPossession     string   `json:"valuedPossession,omitempty"`
	FamilyBackground     string   `json:"familyBackground,omitempty"`
	ChildhoodEnvironment string   `json:"childhoodEnvironment,omitempty"`
	FamilyCrisis         string   `json:"familyCrisis,omitempty"`
	LifeGoals            []string `json:"lifeGoals,omitempty"`
	Friends              []string `json:"friends,omitempty"`
	Enemies              []string `json:"enemies,omitempty"`
	RomanticInvolvements []string `json:"romanticInvolvements,omitempty"`
}

// Character is a full character sheet. The derived block (MaxHitPoints through
// Humanity) is owned by Recompute and never taken from client input.
type Character struct {
	ID       string `json:"id"`
	UserID   string `json:"userId"`
	Handle   string `json:"handle"`
	RealName string `json:"realName,omitempty"`
	Role     Role   `json:"role"`
	Level    int    `json:"level"`

	Stats Stats `json:"stats"`

	MaxHitPoints              int `json:"maxHitPoints"`
	CurrentHitPoints          int `json:"currentHitPoints"`
	SeriouslyWoundedThreshold int `json:"seriouslyWoundedThreshold"`
	DeathSave                 int `json:"deathSave"`
	Humanity                  int `json:"humanity"`

	RoleAbility RoleAbility     `json:"roleAbility"`
	Skills      []Skill         `json:"skills"`
	Cyberware   []Cyberware     `json:"cyberware"`
	Weapons     []Weapon        `json:"weapons"`
	Armor       []Armor         `json:"armor"`
	Inventory   []InventoryItem `json:"inventory"`

	Eurodollars       int       `json:"eurodollars"`
	Lifepath          *Lifepath `json:"lifepath,omitempty"`
	ImprovementPoints int       `json:"improvementPoints"`
	CurrentLuck       int       `json:"currentLuck"`
	Notes             string    `json:"notes,omitempty"`
	PortraitURL       string    `json:"portraitUrl,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// CharacterInput carries the client-settable fields of a new character.
type CharacterInput struct {
	Handle      string          `json:"handle"`
	RealName    string          `json:"realName,omitempty"`
	Role        Role            `json:"role"`
	Stats       Stats           `json:"stats"`
	RoleAbility RoleAbility     `json:"roleAbility"`
	Skills      []Skill         `json:"skills,omitempty"`
	Lifepath    *Lifepath       `json:"lifepath,omitempty"`
	Cyberware   []Cyberware     `json:"cyberware,omitempty"`
	Weapons     []Weapon        `json:"weapons,omitempty"`
	Armor       []Armor         `json:"armor,omitempty"`
	Inventory   []InventoryItem `json:"inventory,omitempty"`
	Eurodollars int             `json:"eurodollars,omitempty"`
	Notes       string          `json:"notes,omitempty"`
	PortraitURL string          `json:"portraitUrl,omitempty"`
}

// CharacterPatch is a partial update. Nil fields are left untouched; a non-nil
// empty slice clears the list.
type CharacterPatch struct {
	Handle            *string         `json:"handle,omitempty"`
	RealName          *string         `json:"realName,omitempty"`
	Role              *Role           `json:"role,omitempty"`
	Level             *int            `json:"level,omitempty"`
	Stats             *Stats          `json:"stats,omitempty"`
	RoleAbility       *RoleAbility    `json:"roleAbility,omitempty"`
	Skills            []Skill         `json:"skills,omitempty"`
	Lifepath          *Lifepath       `json:"lifepath,omitempty"`
	Cyberware         []Cyberware     `json:"cyberware,omitempty"`
	Weapons           []Weapon        `json:"weapons,omitempty"`
	Armor             []Armor         `json:"armor,omitempty"`
	Inventory         []InventoryItem `json:"inventory,omitempty"`
	Eurodollars       *int            `json:"eurodollars,omitempty"`
	Notes             *string         `json:"notes,omitempty"`
	PortraitURL       *string         `json:"portraitUrl,omitempty"`
	CurrentHitPoints  *int            `json:"currentHitPoints,omitempty"`
	CurrentLuck       *int            `json:"currentLuck,omitempty"`
	ImprovementPoints *int            `json:"improvementPoints,omitempty"`
}

// NewCharacter builds a character owned by userID with every derived field
// computed, full hit points and a full luck pool.
func NewCharacter(id, userID string, in CharacterInput, now time.Time) (Character, error) {
	if err := in.Validate(); err != nil {
		return Character{}, err
	}

	skills := in.Skills
	if skills == nil {
		skills = DefaultSkills()
	}

	c := Character{
		ID:          id,
		UserID:      userID,
		Handle:      strings.TrimSpace(in.Handle),
		RealName:    in.RealName,
		Role:        in.Role,
		Level:       1,
		Stats:       in.Stats,
		RoleAbility: in.RoleAbility,
		Skills:      skills,
		Cyberware:   in.Cyberware,
		Weapons:     in.Weapons,
		Armor:       in.Armor,
		Inventory:   in.Inventory,
		Eurodollars: in.Eurodollars,
		Lifepath:    in.Lifepath,
		Notes:       in.Notes,
		PortraitURL: in.PortraitURL,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	c.Recompute()
	c.CurrentHitPoints = c.MaxHitPoints
	c.CurrentLuck = c.Stats.Luck
	c.Normalize()
	return c, nil
}

// Apply merges p into c and recomputes the derived block from the merged
// stats and cyberware. Current hit points and luck are clamped to the new
// bounds whether they were supplied or retained.
func (c *Character) Apply(p CharacterPatch, now time.Time) error {
	if err := p.Validate(); err != nil {
		return err
	}

	if p.Handle != nil {
		c.Handle = strings.TrimSpace(*p.Handle)
	}
	if p.RealName != nil {
		c.RealName = *p.RealName
	}
	if p.Role != nil {
		c.Role = *p.Role
	}
	if p.Level != nil {
		c.Level = *p.Level
	}
	if p.Stats != nil {
		c.Stats = *p.Stats
	}
	if p.RoleAbility != nil {
		c.RoleAbility = *p.RoleAbility
	}
	if p.Skills != nil {
		c.Skills = p.Skills
	}
	if p.Lifepath != nil {
		c.Lifepath = p.Lifepath
	}
	if p.Cyberware != nil {
		c.Cyberware = p.Cyberware
	}
	if p.Weapons != nil {
		c.Weapons = p.Weapons
	}
	if p.Armor != nil {
		c.Armor = p.Armor
	}
	if p.Inventory != nil {
		c.Inventory = p.Inventory
	}
	if p.Eurodollars != nil {
		c.Eurodollars = *p.Eurodollars
	}
	if p.Notes != nil {
		c.Notes = *p.Notes
	}
	if p.PortraitURL != nil {
		c.PortraitURL = *p.PortraitURL
	}
	if p.CurrentHitPoints != nil {
		c.CurrentHitPoints = *p.CurrentHitPoints
	}
	if p.CurrentLuck != nil {
		c.CurrentLuck = *p.CurrentLuck
	}
	if p.ImprovementPoints != nil {
		c.ImprovementPoints = *p.ImprovementPoints
	}

	c.Recompute()
	c.CurrentHitPoints = clamp(c.CurrentHitPoints, 0, c.MaxHitPoints)
	c.CurrentLuck = clamp(c.CurrentLuck, 0, c.Stats.Luck)
	c.UpdatedAt = now
	c.Normalize()
	return nil
}

// Normalize replaces nil lists with empty ones so stored documents always
// carry arrays.
func (c *Character) Normalize() {
	if c.Skills == nil {
		c.Skills = []Skill{}
	}
	if c.Cyberware == nil {
		c.Cyberware = []Cyberware{}
	}
	if c.Weapons == nil {
		c.Weapons = []Weapon{}
	}
	if c.Armor == nil {
		c.Armor = []Armor{}
	}
	if c.Inventory == nil {
		c.Inventory = []InventoryItem{}
	}
}

// OwnedBy reports whether userID owns the character.
func (c Character) OwnedBy(userID string) bool {
	return c.UserID == userID
}

func (in CharacterInput) Validate() error {
	if strings.TrimSpace(in.Handle) == "" {
		return apperr.Invalid("handle is required")
	}
	if !slices.Contains(Roles, in.Role) {
		return apperr.Invalid(fmt.Sprintf("unknown role %q", in.Role))
	}
	if err := in.Stats.Validate(); err != nil {
		return err
	}
	if in.Eurodollars < 0 {
		return apperr.Invalid("eurodollars must not be negative")
	}
	return validateGear(&in.RoleAbility, in.Skills, in.Cyberware, in.Weapons, in.Armor, in.Inventory)
}

func (p CharacterPatch) Validate() error {
	if p.Handle != nil && strings.TrimSpace(*p.Handle) == "" {
		return apperr.Invalid("handle must not be blank")
	}
	if p.Role != nil && !slices.Contains(Roles, *p.Role) {
		return apperr.Invalid(fmt.Sprintf("unknown role %q", *p.Role))
	}
	if p.Level != nil && *p.Level < 1 {
		return apperr.Invalid("level must be at least 1")
	}
	if p.Stats != nil {
		if err := p.Stats.Validate(); err != nil {
			return err
		}
	}
	if p.Eurodollars != nil && *p.Eurodollars < 0 {
		return apperr.Invalid("eurodollars must not be negative")
	}
	if p.ImprovementPoints != nil && *p.ImprovementPoints < 0 {
		return apperr.Invalid("improvementPoints must not be negative")
	}
	return validateGear(p.RoleAbility, p.Skills, p.Cyberware, p.Weapons, p.Armor, p.Inventory)
}

// Validate checks every stat against the [StatMin, StatMax] range.
func (s Stats) Validate() error {
	fields := []struct {
		name  string
		value int
	}{
		{"intelligence", s.Intelligence},
		{"reflexes", s.Reflexes},
		{"dexterity", s.Dexterity},
		{"technology", s.Technology},
		{"cool", s.Cool},
		{"willpower", s.Willpower},
		{"luck", s.Luck},
		{"move", s.Move},
		{"body", s.Body},
		{"empathy", s.Empathy},
	}
	for _, f := range fields {
		if f.value < StatMin || f.value > StatMax {
			return apperr.New(apperr.CodeStatOutOfRange,
				fmt.Sprintf("%s must be between %d and %d, got %d", f.name, StatMin, StatMax, f.value))
		}
	}
	return nil
}

func validateGear(ability *RoleAbility, skills []Skill, cyberware []Cyberware, weapons []Weapon, armor []Armor, inventory []InventoryItem) error {
	if ability != nil && (ability.Rank < RoleRankMin || ability.Rank > RoleRankMax) {
		return apperr.Invalid(fmt.Sprintf("role ability rank must be between %d and %d", RoleRankMin, RoleRankMax))
	}
	for _, s := range skills {
		if s.Level < SkillMin || s.Level > SkillMax {
			return apperr.Invalid(fmt.Sprintf("skill %q level must be between %d and %d", s.Name, SkillMin, SkillMax))
		}
	}
	for _, cw := range cyberware {
		if cw.HumanityLoss < 0 {
			return apperr.Invalid(fmt.Sprintf("cyberware %q humanity loss must not be negative", cw.Name))
		}
		if cw.Cost < 0 {
			return apperr.Invalid(fmt.Sprintf("cyberware %q cost must not be negative", cw.Name))
		}
		if !slices.Contains(cyberwareTypes, cw.Type) {
			return apperr.Invalid(fmt.Sprintf("cyberware %q has unknown type %q", cw.Name, cw.Type))
		}
		switch cw.Installation {
		case InstallMall, InstallClinic, InstallHospital:
		default:
			return apperr.Invalid(fmt.Sprintf("cyberware %q has unknown installation %q", cw.Name, cw.Installation))
		}
	}
	for _, w := range weapons {
		if w.ROF < 1 {
			return apperr.Invalid(fmt.Sprintf("weapon %q rate of fire must be at least 1", w.Name))
		}
		switch w.Type {
		case WeaponMelee, WeaponRanged, WeaponExotic:
		default:
			return apperr.Invalid(fmt.Sprintf("weapon %q has unknown type %q", w.Name, w.Type))
		}
	}
	for _, a := range armor {
		if a.StoppingPower < 0 {
			return apperr.Invalid(fmt.Sprintf("armor %q stopping power must not be negative", a.Name))
		}
		switch a.Type {
		case ArmorBody, ArmorHead, ArmorShield:
		default:
			return apperr.Invalid(fmt.Sprintf("armor %q has unknown type %q", a.Name, a.Type))
		}
	}
	for _, it := range inventory {
		if it.Quantity < 1 {
			return apperr.Invalid(fmt.Sprintf("item %q quantity must be at least 1", it.Name))
		}
	}
	return nil
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
