package drawstate

import (
	"errors"
	"testing"

	"github.com/Faultbox/drawstate/pkg/condition"
)

func addState(t *testing.T, tbl *Table, model string, bits ...condition.Bit) *State {
	t.Helper()
	s := tbl.NewState()
	s.Model = model
	if err := tbl.AddConditionState(condition.New(bits...), s); err != nil {
		t.Fatalf("AddConditionState(%v): %v", bits, err)
	}
	return s
}

func addDefault(t *testing.T, tbl *Table, model string) *State {
	t.Helper()
	s := tbl.NewState()
	s.Model = model
	if err := tbl.SetDefaultState(s); err != nil {
		t.Fatalf("SetDefaultState: %v", err)
	}
	return s
}

func TestTableDefaultInvariants(t *testing.T) {
	t.Run("single default plus states", func(t *testing.T) {
		h := newHarness(nil)
		addDefault(t, h.table, "base")
		addState(t, h.table, "dmg", condition.Damaged)
		addState(t, h.table, "rdmg", condition.ReallyDamaged)
		addState(t, h.table, "night", condition.Night)
		if n := len(h.table.States()); n != 4 {
			t.Errorf("expected 4 states, got %d", n)
		}
	})

	t.Run("two defaults", func(t *testing.T) {
		h := newHarness(nil)
		addDefault(t, h.table, "a")
		err := h.table.SetDefaultState(h.table.NewState())
		if !errors.Is(err, ErrMultipleDefaults) {
			t.Errorf("expected ErrMultipleDefaults, got %v", err)
		}
	})

	t.Run("none pattern twice", func(t *testing.T) {
		h := newHarness(nil)
		addDefault(t, h.table, "a")
		err := h.table.AddConditionState(condition.None(), h.table.NewState())
		if !errors.Is(err, ErrDuplicateConditions) {
			t.Errorf("expected ErrDuplicateConditions, got %v", err)
		}
	})

	t.Run("default after states", func(t *testing.T) {
		h := newHarness(nil)
		addState(t, h.table, "dmg", condition.Damaged)
		err := h.table.SetDefaultState(h.table.NewState())
		if !errors.Is(err, ErrDefaultNotFirst) {
			t.Errorf("expected ErrDefaultNotFirst, got %v", err)
		}
	})
}

func TestTablePatternInvariants(t *testing.T) {
	tests := []struct {
		name  string
		build func(tbl *Table) error
		want  error
	}{
		{
			name: "duplicate pattern",
			build: func(tbl *Table) error {
				tbl.AddConditionState(condition.New(condition.Damaged, condition.Night), tbl.NewState())
				return tbl.AddConditionState(condition.New(condition.Night, condition.Damaged), tbl.NewState())
			},
			want: ErrDuplicateConditions,
		},
		{
			name: "pattern uses ignored bit",
			build: func(tbl *Table) error {
				tbl.SetIgnoreConditions(condition.New(condition.Moving))
				return tbl.AddConditionState(condition.New(condition.Damaged, condition.Moving), tbl.NewState())
			},
			want: ErrIgnoredConditions,
		},
		{
			name: "ignore mask after pattern",
			build: func(tbl *Table) error {
				tbl.AddConditionState(condition.New(condition.Moving), tbl.NewState())
				return tbl.SetIgnoreConditions(condition.New(condition.Moving))
			},
			want: ErrIgnoredConditions,
		},
		{
			name: "alias without state",
			build: func(tbl *Table) error {
				return tbl.AddAliasFlags(condition.New(condition.Damaged))
			},
			want: ErrAliasWithoutState,
		},
		{
			name: "alias collides with other state",
			build: func(tbl *Table) error {
				tbl.AddConditionState(condition.New(condition.Damaged), tbl.NewState())
				tbl.AddConditionState(condition.New(condition.Snow), tbl.NewState())
				return tbl.AddAliasFlags(condition.New(condition.Damaged))
			},
			want: ErrDuplicateConditions,
		},
		{
			name: "alias collides with own pattern",
			build: func(tbl *Table) error {
				tbl.AddConditionState(condition.New(condition.Damaged), tbl.NewState())
				return tbl.AddAliasFlags(condition.New(condition.Damaged))
			},
			want: ErrDuplicateConditions,
		},
		{
			name: "valid alias",
			build: func(tbl *Table) error {
				tbl.AddConditionState(condition.New(condition.Damaged), tbl.NewState())
				return tbl.AddAliasFlags(condition.New(condition.ReallyDamaged))
			},
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(nil)
			err := tt.build(h.table)
			if !errors.Is(err, tt.want) {
				t.Fatalf("got %v, want %v", err, tt.want)
			}
			if tt.want == nil {
				return
			}
			var ce *ConfigError
			if !errors.As(err, &ce) {
				t.Fatalf("expected *ConfigError, got %T", err)
			}
			if ce.Template != "TestTank" {
				t.Errorf("Template = %q", ce.Template)
			}
		})
	}
}

func TestTableTransitionInvariants(t *testing.T) {
	once := func(tbl *Table) *State {
		s := tbl.NewState()
		s.AnimationMode = AnimOnce
		return s
	}

	tests := []struct {
		name  string
		build func(tbl *Table) error
		want  error
	}{
		{
			name:  "valid",
			build: func(tbl *Table) error { return tbl.AddTransition("Up", "Down", once(tbl)) },
		},
		{
			name: "backwards single shot is valid",
			build: func(tbl *Table) error {
				s := tbl.NewState()
				s.AnimationMode = AnimOnceBackwards
				return tbl.AddTransition("Up", "Down", s)
			},
		},
		{
			name:  "identical states",
			build: func(tbl *Table) error { return tbl.AddTransition("Up", "Up", once(tbl)) },
			want:  ErrTransitionSameState,
		},
		{
			name:  "empty from key",
			build: func(tbl *Table) error { return tbl.AddTransition("", "Down", once(tbl)) },
			want:  ErrEmptyTransitionKey,
		},
		{
			name:  "empty to key",
			build: func(tbl *Table) error { return tbl.AddTransition("Up", "", once(tbl)) },
			want:  ErrEmptyTransitionKey,
		},
		{
			name: "looping mode",
			build: func(tbl *Table) error {
				s := tbl.NewState()
				s.AnimationMode = AnimLoop
				return tbl.AddTransition("Up", "Down", s)
			},
			want: ErrTransitionMode,
		},
		{
			name: "carries transition key",
			build: func(tbl *Table) error {
				s := once(tbl)
				s.SetTransitionKey("Other")
				return tbl.AddTransition("Up", "Down", s)
			},
			want: ErrTransitionKeys,
		},
		{
			name: "carries finish key",
			build: func(tbl *Table) error {
				s := once(tbl)
				s.SetAllowToFinishKey("Other")
				return tbl.AddTransition("Up", "Down", s)
			},
			want: ErrTransitionKeys,
		},
		{
			name: "duplicate",
			build: func(tbl *Table) error {
				tbl.AddTransition("Up", "Down", once(tbl))
				return tbl.AddTransition("Up", "Down", once(tbl))
			},
			want: ErrDuplicateTransition,
		},
		{
			name: "reverse direction is distinct",
			build: func(tbl *Table) error {
				tbl.AddTransition("Up", "Down", once(tbl))
				return tbl.AddTransition("Down", "Up", once(tbl))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(nil)
			if err := tt.build(h.table); !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}
}

func TestTransitionSig(t *testing.T) {
	h := newHarness(nil)
	up := h.table.Names().Key("Up")
	down := h.table.Names().Key("Down")

	sig := MakeTransitionSig(up, down)
	if uint64(sig) != uint64(up)<<32|uint64(down) {
		t.Errorf("sig = %#x", uint64(sig))
	}
	from, to := sig.Keys()
	if from != up || to != down {
		t.Errorf("Keys() = %d, %d", from, to)
	}

	s := h.table.NewState()
	s.AnimationMode = AnimOnce
	if err := h.table.AddTransition("Up", "Down", s); err != nil {
		t.Fatal(err)
	}
	if s.TransitionSig() != sig || !s.IsTransition() {
		t.Error("transition state does not carry its signature")
	}
	if got, ok := h.table.TransitionByKeys("Up", "Down"); !ok || got != s {
		t.Error("TransitionByKeys failed")
	}
	if _, ok := h.table.TransitionByKeys("Down", "Up"); ok {
		t.Error("reverse transition should not exist")
	}
}

func TestNewStateCopiesDefault(t *testing.T) {
	h := newHarness(nil)
	def := h.table.NewState()
	def.Model = "tank"
	def.Animations = []Animation{{Name: "idle", Idle: true}}
	def.Weapons[Primary].MuzzleFlash = "muzzle"
	def.AddPublicBone("Antenna")
	if err := h.table.SetDefaultState(def); err != nil {
		t.Fatal(err)
	}

	s := h.table.NewState()
	if s.Model != "tank" || len(s.Animations) != 1 || s.Weapons[Primary].MuzzleFlash != "muzzle" {
		t.Errorf("state did not inherit default content: %+v", s)
	}
	if len(s.PublicBones()) != 1 || s.PublicBones()[0] != "antenna" {
		t.Errorf("public bones = %v", s.PublicBones())
	}
	if s.ConditionCount() != 0 {
		t.Error("conditions must not be inherited")
	}

	s.Animations[0].Name = "other"
	if def.Animations[0].Name != "idle" {
		t.Error("animations share backing storage with the default")
	}
}

func TestFindBestStateScoring(t *testing.T) {
	h := newHarness(nil)
	a := addDefault(t, h.table, "modelA")
	b := addState(t, h.table, "modelB", condition.Damaged)
	c := addState(t, h.table, "modelC", condition.Damaged, condition.Snow)

	tests := []struct {
		name  string
		query condition.Flags
		want  *State
	}{
		{"damaged and snow", condition.New(condition.Damaged, condition.Snow), c},
		{"damaged", condition.New(condition.Damaged), b},
		{"snow", condition.New(condition.Snow), c},
		{"bit no pattern uses", condition.New(condition.Moving), a},
		{"nothing", condition.None(), a},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := h.table.FindBestState(tt.query)
			if !ok || got != tt.want {
				t.Errorf("FindBestState(%s) = %v, want %s", tt.query, got, tt.want.Model)
			}
		})
	}
}

func TestFindBestStateIgnoreMask(t *testing.T) {
	h := newHarness(nil)
	if err := h.table.SetIgnoreConditions(condition.New(condition.Damaged)); err != nil {
		t.Fatal(err)
	}
	def := addDefault(t, h.table, "base")
	night := addState(t, h.table, "night", condition.Night)

	if got, _ := h.table.FindBestState(condition.New(condition.Damaged)); got != def {
		t.Errorf("ignored bit changed the result: %s", got.Model)
	}
	if got, _ := h.table.FindBestState(condition.New(condition.Damaged, condition.Night)); got != night {
		t.Errorf("expected night, got %s", got.Model)
	}
	// Masked queries share one memo entry.
	h.table.FindBestState(condition.New(condition.Night))
	if n := h.table.finder.Len(); n != 2 {
		t.Errorf("memo has %d entries, want 2", n)
	}
}

func TestFindBestStateMemoClearedOnMutation(t *testing.T) {
	h := newHarness(nil)
	def := addDefault(t, h.table, "base")
	q := condition.New(condition.Damaged)

	if got, _ := h.table.FindBestState(q); got != def {
		t.Fatal("expected default")
	}
	dmg := addState(t, h.table, "dmg", condition.Damaged)
	if got, _ := h.table.FindBestState(q); got != dmg {
		t.Error("memo was not cleared when a state was added")
	}

	h.table.Clear()
	if _, ok := h.table.FindBestState(q); ok {
		t.Error("cleared table should not match")
	}
}

func TestConfigErrorMessage(t *testing.T) {
	err := &ConfigError{Template: "Tank", State: "DAMAGED", Err: ErrDuplicateConditions, Detail: "x"}
	want := "Tank [DAMAGED]: duplicate condition pattern: x"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}
