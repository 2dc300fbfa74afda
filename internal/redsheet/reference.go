package redsheet

const (
	StatMin             = 2
	StatMax             = 8
	StatCreationPoints  = 62
	SkillMin            = 0
	SkillMax            = 10
	SkillStartingPoints = 86
	RoleRankMin         = 1
	RoleRankMax         = 10
)

// Linked stat abbreviations used by Skill.LinkedStat.
const (
	StatINT  = "INT"
	StatREF  = "REF"
	StatDEX  = "DEX"
	StatTECH = "TECH"
	StatCOOL = "COOL"
	StatWILL = "WILL"
	StatEMP  = "EMP"
)

// SkillGroup lists the skills keyed to one stat.
type SkillGroup struct {
	Stat   string   `json:"stat"`
	Skills []string `json:"skills"`
}

var skillGroups = []SkillGroup{
	{StatINT, []string{
		"Accounting", "Animal Handling", "Bureaucracy", "Business", "Composition",
		"Criminology", "Cryptography", "Deduction", "Education", "Gamble", "Language",
		"Library Search", "Local Expert", "Science", "Tactics", "Wilderness Survival",
	}},
	{StatREF, []string{
		"Archery", "Autofire", "Brawling", "Evasion", "Handgun", "Heavy Weapons",
		"Martial Arts", "Melee Weapon", "Shoulder Arms",
	}},
	{StatDEX, []string{
		"Athletics", "Contortionist", "Dance", "Drive Land Vehicle", "Pilot Air Vehicle",
		"Pilot Sea Vehicle", "Riding", "Stealth",
	}},
	{StatTECH, []string{
		"Air Vehicle Tech", "Basic Tech", "Cybertech", "Demolitions",
		"Electronics/Security Tech", "First Aid", "Forgery", "Land Vehicle Tech",
		"Paint/Draw/Sculpt", "Paramedic", "Photography/Film", "Pick Lock", "Pick Pocket",
		"Sea Vehicle Tech", "Weaponstech",
	}},
	{StatCOOL, []string{
		"Acting", "Bribery", "Conversation", "Human Perception", "Interrogation",
		"Persuasion", "Personal Grooming", "Streetwise", "Trading", "Wardrobe & Style",
	}},
	{StatWILL, []string{"Concentration", "Endurance", "Resist Torture/Drugs"}},
	{StatEMP, []string{"Perception"}},
}

// SkillGroups returns a copy of the skill catalogue grouped by linked stat.
func SkillGroups() []SkillGroup {
	out := make([]SkillGroup, len(skillGroups))
	for i, g := range skillGroups {
		out[i] = SkillGroup{Stat: g.Stat, Skills: append([]string(nil), g.Skills...)}
	}
	return out
}

// DefaultSkills returns every catalogued skill at level 0.
func DefaultSkills() []Skill {
	var skills []Skill
	for _, g := range skillGroups {
		for _, name := range g.Skills {
			skills = append(skills, Skill{Name: name, LinkedStat: g.Stat})
		}
	}
	return skills
}

// RoleAbilityInfo describes the signature ability of a role.
type RoleAbilityInfo struct {
	Role            Role     `json:"role"`
	Name            string   `json:"name"`
	Description     string   `json:"description"`
	Specializations []string `json:"specializations,omitempty"`
}

var roleAbilities = []RoleAbilityInfo{
	{RoleSolo, "Combat Awareness", "Adds rank to Initiative; at higher ranks adds to ranged attacks, damage, and unlocks Precision Attack or Threat Detection.", nil},
	{RoleNetrunner, "Interface", "Accesses the NET through a cyberdeck: Jack In/Out, Activate program, Scanner, Backdoor, Cloak, Control, Pathfinder, Slide, Virus, Zap.", nil},
	{RoleTech, "Maker", "Fabricates, upgrades and invents gear. Field expertise for quick repairs, upgrade expertise for modifications, invention expertise for new items.", nil},
	{RoleMedtech, "Medicine", "Specializes in Surgery, Pharmaceuticals or Cryosystem Operation.", []string{"Surgery", "Pharmaceuticals", "Cryosystem Operation"}},
	{RoleMedia, "Credibility", "Shapes public opinion. Credibility sets the reach and impact of stories, exposés and smear campaigns.", nil},
	{RoleExec, "Teamwork", "Leads a corporate team. Higher rank means a bigger, more skilled and more loyal team.", nil},
	{RoleLawman, "Backup", "Calls police or security backup. Higher rank means more agents, better equipped, arriving faster, within jurisdiction.", nil},
	{RoleFixer, "Operator", "Black market access, rare goods and connections. Higher rank means better prices, rarer items and more reliable contacts.", nil},
	{RoleNomad, "Moto", "Access to family vehicles. Higher rank means more vehicles, better armed and armored, larger hauling capacity.", nil},
	{RoleRockerboy, "Charismatic Impact", "Moves fans and crowds through performance: inspire action, calm riots or incite rebellion.", nil},
}

// RoleAbilities returns the ability catalogue in role order.
func RoleAbilities() []RoleAbilityInfo {
	return append([]RoleAbilityInfo(nil), roleAbilities...)
}

func intp(v int) *int { return &v }

// FoundationalCyberware returns the base pieces other cyberware options
// slot into.
func FoundationalCyberware() []Cyberware {
	return []Cyberware{
		{Name: "Neural Link", Type: CyberwareNeuralware, Installation: InstallClinic, Cost: 500, HumanityLoss: 7, OptionSlots: intp(5), Foundational: true},
		{Name: "Cyberaudio Suite", Type: CyberwareCyberaudio, Installation: InstallClinic, Cost: 500, HumanityLoss: 7, OptionSlots: intp(3), Foundational: true},
		{Name: "Cybereye", Type: CyberwareCyberoptics, Installation: InstallClinic, Cost: 100, HumanityLoss: 7, OptionSlots: intp(3), Foundational: true},
		{Name: "Cyberarm", Type: CyberwareCyberarm, Installation: InstallHospital, Cost: 500, HumanityLoss: 7, OptionSlots: intp(4), Foundational: true},
		{Name: "Cyberleg", Type: CyberwareCyberleg, Installation: InstallHospital, Cost: 500, HumanityLoss: 7, OptionSlots: intp(3), Foundational: true},
	}
}

// Limits collects the numeric rules clients validate forms against.
type Limits struct {
	StatMin             int `json:"statMin"`
	StatMax             int `json:"statMax"`
	StatCreationPoints  int `json:"statCreationPoints"`
	SkillMin            int `json:"skillMin"`
	SkillMax            int `json:"skillMax"`
	SkillStartingPoints int `json:"skillStartingPoints"`
}

func RuleLimits() Limits {
	return Limits{
		StatMin:             StatMin,
		StatMax:             StatMax,
		StatCreationPoints:  StatCreationPoints,
		SkillMin:            SkillMin,
		SkillMax:            SkillMax,
		SkillStartingPoints: SkillStartingPoints,
	}
}
