package engine

// HexCoord is an axial board coordinate. The server does not bound it; the board is
// assembled client-side.
type HexCoord struct {
	Q int `json:"q"`
	R int `json:"r"`
}

// Facing is one of six hex directions, clockwise from north (0).
type Facing int

const NumFacings = 6

func (f Facing) Valid() bool { return f >= 0 && f < NumFacings }

type BodyLocation string

const (
	LocHead     BodyLocation = "head"
	LocChest    BodyLocation = "chest"
	LocAbdomen  BodyLocation = "abdomen"
	LocRightArm BodyLocation = "right_arm"
	LocLeftArm  BodyLocation = "left_arm"
	LocRightLeg BodyLocation = "right_leg"
	LocLeftLeg  BodyLocation = "left_leg"
)

var BodyLocations = []BodyLocation{
	LocHead, LocChest, LocAbdomen, LocRightArm, LocLeftArm, LocRightLeg, LocLeftLeg,
}

// Wound severity: 1 flesh, 2 serious, 3 critical.
type Wound struct {
	Location BodyLocation `json:"location"`
	Severity int          `json:"severity"`
}

type CharacterStats struct {
	Speed    int `json:"speed"`    // hexes per move action
	GunSpeed int `json:"gunSpeed"` // draw/fire modifier
	Accuracy int `json:"accuracy"`
	Strength int `json:"strength"`
}

type Character struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	BaseStats CharacterStats `json:"baseStats"`
}

type WeaponType string

const (
	WeaponRevolver  WeaponType = "revolver"
	WeaponRifle     WeaponType = "rifle"
	WeaponShotgun   WeaponType = "shotgun"
	WeaponDerringer WeaponType = "derringer"
	WeaponKnife     WeaponType = "knife"
	WeaponFists     WeaponType = "fists"
)

type Weapon struct {
	Type     WeaponType `json:"type"`
	Loaded   int        `json:"loaded"`
	Capacity int        `json:"capacity"`
}

type PlayerStatus string

const (
	StatusAlive       PlayerStatus = "alive"
	StatusDown        PlayerStatus = "down"
	StatusPassedOut   PlayerStatus = "passed_out"
	StatusSurrendered PlayerStatus = "surrendered"
	StatusDead        PlayerStatus = "dead"
)

// Player is the authoritative per-session record.
type Player struct {
	SessionID         string       `json:"sessionId"`
	Character         Character    `json:"character"`
	Position          HexCoord     `json:"position"`
	Facing            Facing       `json:"facing"`
	ActionPoints      int          `json:"actionPoints"`
	MaxActionPoints   int          `json:"maxActionPoints"`
	Wounds            []Wound      `json:"wounds"`
	Weapons           []Weapon     `json:"weapons"`
	ActiveWeaponIndex int          `json:"activeWeaponIndex"`
	Status            PlayerStatus `json:"status"`
	// Drawn reports whether the active weapon is in hand.
	Drawn bool `json:"drawn"`
	// AimingAt is the session aimed at during the current turn, if any.
	AimingAt string `json:"aimingAt,omitempty"`
}

// ActiveWeapon returns nil when the index points nowhere.
func (p *Player) ActiveWeapon() *Weapon {
	if p.ActiveWeaponIndex < 0 || p.ActiveWeaponIndex >= len(p.Weapons) {
		return nil
	}
	return &p.Weapons[p.ActiveWeaponIndex]
}

func (p Player) Alive() bool { return p.Status == StatusAlive }

type ActionType string

const (
	ActMove   ActionType = "move"
	ActTurn   ActionType = "turn"
	ActDraw   ActionType = "draw"
	ActAim    ActionType = "aim"
	ActFire   ActionType = "fire"
	ActReload ActionType = "reload"
	ActPass   ActionType = "pass"
)

// Action is a single declared intent. Move uses Target, turn uses Facing, aim and
// fire use TargetPlayerID.
type Action struct {
	Type           ActionType `json:"type"`
	PlayerID       string     `json:"playerId"`
	Target         *HexCoord  `json:"target,omitempty"`
	Facing         *Facing    `json:"facing,omitempty"`
	TargetPlayerID string     `json:"targetPlayerId,omitempty"`
}

type Phase string

const (
	PhaseLobby           Phase = "lobby"
	PhaseDeclare         Phase = "declare"
	PhaseResolveMovement Phase = "resolve_movement"
	PhaseResolveFire     Phase = "resolve_fire"
	PhaseEnd             Phase = "end"
)

// State is the single authoritative aggregate of one match. Only the owning room
// mutates it, always through Apply.
type State struct {
	Phase           Phase               `json:"phase"`
	Turn            int                 `json:"turn"`
	Players         map[string]*Player  `json:"players"`
	DeclaredActions map[string][]Action `json:"declaredActions"`
	Ready           map[string]bool     `json:"ready"`
	Winner          string              `json:"winner,omitempty"`
	Rules           Rules               `json:"-"`
}

// Rules configures a match. Resolver may be nil, in which case resolution phases
// advance without touching players.
type Rules struct {
	MinPlayers int
	Resolver   Resolver
}
