// statetool inspects drawable definitions: which condition state a set of
// conditions selects, and which bones each state resolves on its model.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/Faultbox/drawstate/internal/assets"
	"github.com/Faultbox/drawstate/internal/config"
	"github.com/Faultbox/drawstate/internal/drawdef"
	"github.com/Faultbox/drawstate/internal/drawstate"
	"github.com/Faultbox/drawstate/internal/engine/model"
	"github.com/Faultbox/drawstate/internal/logger"
	"github.com/Faultbox/drawstate/pkg/condition"
	"github.com/Faultbox/drawstate/pkg/grf"
	"github.com/Faultbox/drawstate/pkg/namekey"
)

func main() {
	config.ParseFlags()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	args := config.Args()
	if len(args) < 1 {
		printUsage()
		os.Exit(1)
	}
	command, args := args[0], args[1:]

	switch command {
	case "resolve":
		cmdResolve(cfg, args)
	case "drive":
		cmdDrive(cfg, args)
	case "validate":
		cmdValidate(cfg, args)
	case "bones":
		cmdBones(cfg, args)
	case "templates", "ls":
		cmdTemplates(cfg)
	case "conditions":
		cmdConditions()
	case "config":
		cmdConfig(cfg, args)
	case "pack":
		cmdPack(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`statetool - drawable condition state utility

Usage:
  statetool [flags] <command> [options]

Commands:
  resolve <template> [CONDITION...]      Show the state selected by conditions
  drive <template> <set> [<set>...]      Feed condition sets to a drawable in turn
  validate [-night] [-snow] <template>   Resolve bones for a time of day and weather
  bones <template> [CONDITION...]        List the bones of the selected state
  templates                              List loaded drawables
  conditions                             List condition names
  config [output]                        Write the effective config
  pack <out.grf> <file...>               Pack files into a GRF archive

Flags:
  -config <path>   Config file (default: ./statetool.yaml)
  -grf <a,b>       GRF archives to load models from
  -models <dir>    Directory to load models from
  -strict          Abort on the first bad drawable
  -preview         Skip bone validation
  -debug           Debug logging

Condition sets for drive are comma-separated, e.g. "DAMAGED,SNOW"; use
NONE for the empty set.

Examples:
  statetool resolve Tank DAMAGED SNOW
  statetool -grf data.grf validate -night Tank
  statetool drive Tank NONE DAMAGED REALLYDAMAGED,SNOW`)
}

// app bundles the services every command needs.
type app struct {
	assets *assets.Manager
	lib    *model.Library
	coord  *drawstate.Coordinator
	defs   *drawdef.Loader
}

func setup(cfg *config.Config) *app {
	mgr := assets.NewManager()
	for _, dir := range cfg.Data.ModelDirs {
		if err := mgr.AddDir(dir); err != nil {
			logger.Warn("skipping model directory", zap.String("dir", dir), zap.Error(err))
		}
	}
	for _, path := range cfg.Data.GRFPaths {
		if err := mgr.AddArchive(path); err != nil {
			logger.Error("failed to open archive", zap.String("path", path), zap.Error(err))
			os.Exit(1)
		}
	}

	lib := model.NewLibrary(mgr, model.LibraryConfig{
		Prefix: cfg.Data.ModelPrefix,
		Ext:    cfg.Data.ModelExt,
		Logger: logger.Named("model"),
	})

	simulating := cfg.Validation.Simulating
	coord := drawstate.NewCoordinator(lib,
		drawstate.SimulationFunc(func() bool { return simulating }),
		drawstate.CoordinatorConfig{
			StandardPublicBones: cfg.Bones.StandardPublic,
			Group: drawstate.BoneGroup{
				MaxSuffix: cfg.Bones.MaxSuffix,
				Width:     cfg.Bones.SuffixWidth,
			},
			Logger: logger.Named("bones"),
		})

	defs := drawdef.NewLoader(namekey.New(), drawdef.Options{
		Strict: cfg.Validation.Strict,
		Logger: logger.Named("drawdef"),
	})
	for _, path := range cfg.Definitions {
		if err := defs.LoadFile(path); err != nil {
			if cfg.Validation.Strict || errors.Is(err, os.ErrNotExist) {
				logger.Error("failed to load definitions", zap.String("path", path), zap.Error(err))
				os.Exit(1)
			}
			logger.Warn("definitions loaded with errors", zap.String("path", path), zap.Error(err))
		}
	}
	logger.Debug("definitions loaded", zap.Int("drawables", len(defs.Tables())))

	return &app{assets: mgr, lib: lib, coord: coord, defs: defs}
}

func (a *app) close() {
	if n := a.lib.Outstanding(); n != 0 {
		logger.Warn("temporary model instances not released", zap.Int("count", n))
	}
	a.assets.Close()
}

func (a *app) table(name string) *drawstate.Table {
	t, ok := a.defs.Table(name)
	if !ok {
		fmt.Fprintf(os.Stderr, "Unknown drawable: %s\n", name)
		os.Exit(1)
	}
	return t
}

func parseConditions(names []string) condition.Flags {
	flags, err := condition.Parse(names)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return flags
}

func cmdResolve(cfg *config.Config, args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: statetool resolve <template> [CONDITION...]")
		os.Exit(1)
	}
	a := setup(cfg)
	defer a.close()

	t := a.table(args[0])
	query := parseConditions(args[1:])
	s, ok := t.FindBestState(query)
	if !ok {
		fmt.Fprintf(os.Stderr, "No state of %s matches %s\n", t.Name(), query)
		os.Exit(1)
	}
	printState(s)
}

func cmdDrive(cfg *config.Config, args []string) {
	if len(args) < 2 {
		fmt.Fprintln(os.Stderr, "Usage: statetool drive <template> <set> [<set>...]")
		os.Exit(1)
	}
	a := setup(cfg)
	defer a.close()

	d := drawstate.NewDrawable(a.table(args[0]), a.coord)
	for _, set := range args[1:] {
		d.SetConditionFlags(parseConditions(strings.Split(set, ",")))
		for d.InTransition() {
			fmt.Printf("%-30s -> %s (transition %s)\n", set, d.PendingState().Description(), d.CurrentState().Description())
			d.AnimationFinished()
		}
		if s := d.CurrentState(); s != nil {
			fmt.Printf("%-30s %s [%s]\n", set, s.Description(), d.ModelName())
		}
	}
}

func cmdValidate(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	night := fs.Bool("night", false, "Validate for night")
	snow := fs.Bool("snow", false, "Validate for snow")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: statetool validate [-night] [-snow] <template>")
		os.Exit(1)
	}
	a := setup(cfg)
	defer a.close()

	t := a.table(fs.Arg(0))
	a.coord.ValidateForTimeAndWeather(t, *night, *snow)

	for _, s := range append(t.States(), t.Transitions()...) {
		status := "skipped"
		if s.IsValid(drawstate.PristineBonesValid) {
			status = fmt.Sprintf("%d bones", s.PristineBoneCount())
		}
		fmt.Printf("  %-30s %-20s %s\n", s.Description(), s.ModelName(), status)
	}
}

func cmdBones(cfg *config.Config, args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: statetool bones <template> [CONDITION...]")
		os.Exit(1)
	}
	a := setup(cfg)
	defer a.close()

	t := a.table(args[0])
	s, ok := t.FindBestState(parseConditions(args[1:]))
	if !ok {
		fmt.Fprintln(os.Stderr, "No matching state")
		os.Exit(1)
	}
	a.coord.ValidateState(s, nil)
	printState(s)

	for _, name := range s.PristineBoneNames() {
		b, _ := s.FindPristineBoneByName(name)
		p := b.Transform.Translation()
		fmt.Printf("  %-24s #%-3d (%.2f, %.2f, %.2f)\n", name, b.Index, p.X, p.Y, p.Z)
	}
	for i := 0; i < drawstate.TurretCount; i++ {
		if ti := s.Turret(i); ti.TurretBone != 0 || ti.PitchBone != 0 {
			fmt.Printf("  turret %d: bone #%d pitch #%d\n", i, ti.TurretBone, ti.PitchBone)
		}
	}
	for slot := drawstate.Primary; slot < drawstate.WeaponSlotCount; slot++ {
		for i, b := range s.WeaponBarrels(slot) {
			fmt.Printf("  %s barrel %d: recoil #%d fx #%d muzzle #%d launch #%d\n",
				slot, i+1, b.RecoilBone, b.FireFXBone, b.MuzzleFlashBone, b.LaunchBone)
		}
	}
}

func printState(s *drawstate.State) {
	fmt.Printf("State:      %s\n", s.Description())
	fmt.Printf("Model:      %s\n", s.ModelName())
	if s.IsTransition() {
		fmt.Println("Transition: yes")
	}
	var patterns []string
	for _, c := range s.Conditions() {
		patterns = append(patterns, c.String())
	}
	if len(patterns) > 0 {
		fmt.Printf("Conditions: %s\n", strings.Join(patterns, " | "))
	}
	fmt.Printf("Animation:  %s\n", s.AnimationMode)
	if s.Flags != 0 {
		fmt.Printf("Flags:      %s\n", s.Flags)
	}
}

func cmdTemplates(cfg *config.Config) {
	a := setup(cfg)
	defer a.close()

	for _, name := range a.defs.TemplateNames() {
		t, _ := a.defs.Table(name)
		fmt.Printf("%-30s %3d states %3d transitions\n", name, len(t.States()), len(t.Transitions()))
	}
}

func cmdConditions() {
	for _, name := range condition.Names() {
		fmt.Println(name)
	}
}

func cmdConfig(cfg *config.Config, args []string) {
	if len(args) == 0 {
		if err := cfg.Save(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Saved config to %s\n", config.UserConfigPath())
		return
	}
	if err := cfg.SaveTo(args[0]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Saved config to %s\n", args[0])
}

func cmdPack(args []string) {
	if len(args) < 2 {
		fmt.Fprintln(os.Stderr, "Usage: statetool pack <out.grf> <file...>")
		os.Exit(1)
	}

	var files []grf.File
	for _, path := range args[1:] {
		data, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		files = append(files, grf.File{Name: filepath.ToSlash(path), Content: data})
	}

	out, err := os.Create(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := grf.Write(out, files); err != nil {
		out.Close()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := out.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Packed %d files into %s\n", len(files), args[0])
}
