package condition

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownCondition is returned when a condition name is not defined.
var ErrUnknownCondition = errors.New("unknown model condition")

// Bit identifies a single model condition predicate.
// Positions follow declaration order and never change within a process.
type Bit int

const (
	Toppled Bit = iota
	FrontCrushed
	BackCrushed
	Damaged
	ReallyDamaged
	Rubble
	SpecialDamaged
	Night
	Snow
	Parachuting
	Garrisoned
	EnemyNear
	WeaponSetVeteran
	WeaponSetElite
	WeaponSetHero
	WeaponSetCrateUpgradeOne
	WeaponSetCrateUpgradeTwo
	WeaponSetPlayerUpgrade
	Door1Opening
	Door1Closing
	Door1WaitingOpen
	Door1WaitingToClose
	Door2Opening
	Door2Closing
	Door2WaitingOpen
	Door2WaitingToClose
	Door3Opening
	Door3Closing
	Door3WaitingOpen
	Door3WaitingToClose
	Door4Opening
	Door4Closing
	Door4WaitingOpen
	Door4WaitingToClose
	Attacking
	PreattackA
	FiringA
	BetweenFiringShotsA
	ReloadingA
	PreattackB
	FiringB
	BetweenFiringShotsB
	ReloadingB
	PreattackC
	FiringC
	BetweenFiringShotsC
	ReloadingC
	TurretRotate
	PostCollapse
	Moving
	Dying
	AwaitingConstruction
	PartiallyConstructed
	ActivelyBeingConstructed
	Prone
	Freefall
	ActivelyConstructing
	ConstructionComplete
	RadarExtending
	RadarUpgraded
	Panicking
	Aflame
	Smoldering
	Burned
	Docking
	DockingBeginning
	DockingActive
	DockingEnding
	Carrying
	Flooded
	Loaded
	JetAfterburner
	JetExhaust
	Packing
	Unpacking
	Deployed
	OverWater
	PowerPlantUpgraded
	Climbing
	Sold
	Rappelling
	Armed
	PowerPlantUpgrading
	SpecialCheering
	ContinuousFireSlow
	ContinuousFireMean
	ContinuousFireFast
	RaisingFlag
	Captured
	ExplodedFlailing
	ExplodedBouncing
	Splatted
	UsingWeaponA
	UsingWeaponB
	UsingWeaponC
	Preorder
	CenterToLeft
	LeftToCenter
	CenterToRight
	RightToCenter
	Rider1
	Rider2
	Rider3
	Rider4
	Rider5
	Rider6
	Rider7
	Rider8
	StunnedFlailing
	Stunned
	SecondLife
	Jammed
	ArmorSetCrateUpgradeOne
	ArmorSetCrateUpgradeTwo
	User1
	User2
	Disguised

	// Count is the number of defined condition bits.
	Count int = iota
)

var bitNames = [Count]string{
	"TOPPLED",
	"FRONTCRUSHED",
	"BACKCRUSHED",
	"DAMAGED",
	"REALLYDAMAGED",
	"RUBBLE",
	"SPECIAL_DAMAGED",
	"NIGHT",
	"SNOW",
	"PARACHUTING",
	"GARRISONED",
	"ENEMYNEAR",
	"WEAPONSET_VETERAN",
	"WEAPONSET_ELITE",
	"WEAPONSET_HERO",
	"WEAPONSET_CRATEUPGRADE_ONE",
	"WEAPONSET_CRATEUPGRADE_TWO",
	"WEAPONSET_PLAYER_UPGRADE",
	"DOOR_1_OPENING",
	"DOOR_1_CLOSING",
	"DOOR_1_WAITING_OPEN",
	"DOOR_1_WAITING_TO_CLOSE",
	"DOOR_2_OPENING",
	"DOOR_2_CLOSING",
	"DOOR_2_WAITING_OPEN",
	"DOOR_2_WAITING_TO_CLOSE",
	"DOOR_3_OPENING",
	"DOOR_3_CLOSING",
	"DOOR_3_WAITING_OPEN",
	"DOOR_3_WAITING_TO_CLOSE",
	"DOOR_4_OPENING",
	"DOOR_4_CLOSING",
	"DOOR_4_WAITING_OPEN",
	"DOOR_4_WAITING_TO_CLOSE",
	"ATTACKING",
	"PREATTACK_A",
	"FIRING_A",
	"BETWEEN_FIRING_SHOTS_A",
	"RELOADING_A",
	"PREATTACK_B",
	"FIRING_B",
	"BETWEEN_FIRING_SHOTS_B",
	"RELOADING_B",
	"PREATTACK_C",
	"FIRING_C",
	"BETWEEN_FIRING_SHOTS_C",
	"RELOADING_C",
	"TURRET_ROTATE",
	"POST_COLLAPSE",
	"MOVING",
	"DYING",
	"AWAITING_CONSTRUCTION",
	"PARTIALLY_CONSTRUCTED",
	"ACTIVELY_BEING_CONSTRUCTED",
	"PRONE",
	"FREEFALL",
	"ACTIVELY_CONSTRUCTING",
	"CONSTRUCTION_COMPLETE",
	"RADAR_EXTENDING",
	"RADAR_UPGRADED",
	"PANICKING",
	"AFLAME",
	"SMOLDERING",
	"BURNED",
	"DOCKING",
	"DOCKING_BEGINNING",
	"DOCKING_ACTIVE",
	"DOCKING_ENDING",
	"CARRYING",
	"FLOODED",
	"LOADED",
	"JETAFTERBURNER",
	"JETEXHAUST",
	"PACKING",
	"UNPACKING",
	"DEPLOYED",
	"OVER_WATER",
	"POWER_PLANT_UPGRADED",
	"CLIMBING",
	"SOLD",
	"RAPPELLING",
	"ARMED",
	"POWER_PLANT_UPGRADING",
	"SPECIAL_CHEERING",
	"CONTINUOUS_FIRE_SLOW",
	"CONTINUOUS_FIRE_MEAN",
	"CONTINUOUS_FIRE_FAST",
	"RAISING_FLAG",
	"CAPTURED",
	"EXPLODED_FLAILING",
	"EXPLODED_BOUNCING",
	"SPLATTED",
	"USING_WEAPON_A",
	"USING_WEAPON_B",
	"USING_WEAPON_C",
	"PREORDER",
	"CENTER_TO_LEFT",
	"LEFT_TO_CENTER",
	"CENTER_TO_RIGHT",
	"RIGHT_TO_CENTER",
	"RIDER1",
	"RIDER2",
	"RIDER3",
	"RIDER4",
	"RIDER5",
	"RIDER6",
	"RIDER7",
	"RIDER8",
	"STUNNED_FLAILING",
	"STUNNED",
	"SECOND_LIFE",
	"JAMMED",
	"ARMORSET_CRATEUPGRADE_ONE",
	"ARMORSET_CRATEUPGRADE_TWO",
	"USER_1",
	"USER_2",
	"DISGUISED",
}

var bitsByName = func() map[string]Bit {
	m := make(map[string]Bit, Count)
	for i, name := range bitNames {
		m[name] = Bit(i)
	}
	return m
}()

// String returns the authored name of the condition, e.g. "REALLYDAMAGED".
func (b Bit) String() string {
	if b < 0 || int(b) >= Count {
		return fmt.Sprintf("Bit(%d)", int(b))
	}
	return bitNames[b]
}

// Valid reports whether b names a defined condition.
func (b Bit) Valid() bool {
	return b >= 0 && int(b) < Count
}

// ParseBit looks up a condition by name. The lookup ignores case.
func ParseBit(name string) (Bit, error) {
	b, ok := bitsByName[strings.ToUpper(strings.TrimSpace(name))]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownCondition, name)
	}
	return b, nil
}

// Names returns every defined condition name in bit order.
func Names() []string {
	out := make([]string, Count)
	copy(out, bitNames[:])
	return out
}
