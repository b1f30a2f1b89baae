package drawstate

import (
	"testing"

	"github.com/Faultbox/drawstate/pkg/condition"
)

func transitionHarness(t *testing.T) (*harness, *State, *State, *State) {
	t.Helper()
	h := newHarness(map[string]*fakeModel{
		"up":   modelWithBones("a"),
		"down": modelWithBones("a"),
		"fold": modelWithBones("a"),
	})
	up := addState(t, h.table, "up", condition.Night)
	up.SetTransitionKey("KeyA")
	down := addState(t, h.table, "down", condition.Damaged)
	down.SetTransitionKey("KeyB")

	tr := h.table.NewState()
	tr.Model = "fold"
	tr.AnimationMode = AnimOnce
	if err := h.table.AddTransition("KeyA", "KeyB", tr); err != nil {
		t.Fatal(err)
	}
	return h, up, down, tr
}

func TestValidateForTimeAndWeatherTransitionGate(t *testing.T) {
	// KeyA only exists at night, KeyB only by day, so the transition never
	// has both ends under one lighting.
	h, up, down, tr := transitionHarness(t)

	h.coord.ValidateForTimeAndWeather(h.table, true, false)
	if !up.IsValid(PristineBonesValid) {
		t.Error("night state not validated at night")
	}
	if !down.IsValid(PristineBonesValid) {
		t.Error("day state not validated at night")
	}
	if tr.IsValid(PristineBonesValid) {
		t.Error("transition validated with one side missing at night")
	}

	h.coord.ValidateForTimeAndWeather(h.table, false, false)
	if tr.IsValid(PristineBonesValid) {
		t.Error("transition validated with one side missing by day")
	}
}

func TestValidateForTimeAndWeatherTransitionBothSides(t *testing.T) {
	h, _, _, tr := transitionHarness(t)
	night := addState(t, h.table, "down", condition.Damaged, condition.Night)
	night.SetTransitionKey("KeyB")

	h.coord.ValidateForTimeAndWeather(h.table, true, false)
	if !tr.IsValid(PristineBonesValid) {
		t.Error("transition not validated although both sides exist at night")
	}
}

func TestValidateForTimeAndWeatherStateSelection(t *testing.T) {
	h := newHarness(map[string]*fakeModel{"m": modelWithBones("a")})
	day := addState(t, h.table, "m")
	night := addState(t, h.table, "m", condition.Night)
	snow := addState(t, h.table, "m", condition.Snow)
	nightSnow := addState(t, h.table, "m", condition.Night, condition.Snow)

	h.coord.ValidateForTimeAndWeather(h.table, true, false)

	want := map[*State]bool{day: true, night: true, snow: false, nightSnow: false}
	for s, valid := range want {
		if s.IsValid(PristineBonesValid) != valid {
			t.Errorf("%s valid = %v, want %v", s.Description(), !valid, valid)
		}
	}
}

func TestValidateForTimeAndWeatherOncePerCombination(t *testing.T) {
	h := newHarness(map[string]*fakeModel{"m": modelWithBones("a")})
	s := addState(t, h.table, "m")

	h.coord.ValidateForTimeAndWeather(h.table, false, false)
	if h.table.validatedTW != 1 {
		t.Errorf("mask = %04b, want 0001", h.table.validatedTW)
	}
	h.coord.ValidateForTimeAndWeather(h.table, true, true)
	if h.table.validatedTW != 1|8 {
		t.Errorf("mask = %04b, want 1001", h.table.validatedTW)
	}

	// Drop the cache behind the coordinator's back: an already validated
	// combination is skipped.
	s.invalidate()
	h.coord.ValidateForTimeAndWeather(h.table, false, false)
	if s.IsValid(PristineBonesValid) {
		t.Error("combination validated twice")
	}

	h.coord.Invalidate(h.table)
	if h.table.validatedTW != 0 {
		t.Error("Invalidate kept the time/weather mask")
	}
	h.coord.ValidateForTimeAndWeather(h.table, false, false)
	if !s.IsValid(PristineBonesValid) {
		t.Error("state not revalidated after Invalidate")
	}
}

func TestValidateForTimeAndWeatherNotSimulating(t *testing.T) {
	h := newHarness(map[string]*fakeModel{"m": modelWithBones("a")})
	s := addState(t, h.table, "m")

	h.sim.on = false
	h.coord.ValidateForTimeAndWeather(h.table, false, false)
	if s.IsValid(PristineBonesValid) || h.table.validatedTW != 0 {
		t.Error("validation ran while not simulating")
	}

	h.sim.on = true
	h.coord.ValidateForTimeAndWeather(h.table, false, false)
	if !s.IsValid(PristineBonesValid) {
		t.Error("validation skipped after simulation started")
	}
}

func TestCoordinatorDefaults(t *testing.T) {
	c := NewCoordinator(&fakeQuery{}, nil, CoordinatorConfig{StandardPublicBones: []string{"MuzzleFX"}})
	if c.group != DefaultBoneGroup {
		t.Errorf("group = %+v", c.group)
	}
	if !c.shouldValidate() {
		t.Error("nil context should allow validation")
	}
	if c.standard[0] != "muzzlefx" {
		t.Errorf("standard bones not lowercased: %v", c.standard)
	}
}
