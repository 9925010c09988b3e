package loi

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, dir, name, content string) string {
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultConfig(t *testing.T) {
	t.Setenv(ConfigEnv, "")
	conf, err := LoadConfig("")
	if err != nil {
		t.Fatal(err)
	}
	def := DefaultConfig()
	if conf.Mission != def.Mission || conf.Profile != def.Profile {
		t.Fatalf("defaults not loaded:\n%+v\n%+v", conf, def)
	}
	if !conf.Ephemeris.ValidFrom.Equal(def.Ephemeris.ValidFrom) || !conf.Ephemeris.ValidUntil.Equal(def.Ephemeris.ValidUntil) || conf.Ephemeris.DeltaT != DefaultDeltaT {
		t.Fatalf("ephemeris defaults not loaded: %+v", conf.Ephemeris)
	}
	if conf.Profile != ProductionProfile {
		t.Fatal("production is not the default profile")
	}
}

func TestLoadConfigTOML(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "mission.toml", `
[mission]
perigee = 170.0
inclination = 28.5

[search]
profile = "fast"
workers = 4
fine_step = 0.02
scan_step = "12h"

[ephemeris]
delta_t = "70s"
`)
	conf, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if conf.Mission.PerigeeAlt != 170 || conf.Mission.Inclination != 28.5 || conf.Mission.ArgPeriapsis != DefaultMission.ArgPeriapsis {
		t.Fatalf("mission %+v", conf.Mission)
	}
	prof := conf.Profile
	if prof.Name != "fast" || prof.Workers != 4 || prof.FineStep != 0.02 || prof.ScanStep != 12*time.Hour {
		t.Fatalf("search overrides not applied: %+v", prof)
	}
	if prof.CoarseStep != FastProfile.CoarseStep || prof.MaxIterations != FastProfile.MaxIterations {
		t.Fatalf("fast profile not used as the base: %+v", prof)
	}
	moon := conf.Moon()
	if moon.DeltaT != 70*time.Second || moon.Tolerance != prof.CrossingTolerance {
		t.Fatalf("moon %+v", moon)
	}
	p, err := NewPlannerFromConfig(conf)
	if err != nil {
		t.Fatal(err)
	}
	if p.Profile() != prof || p.Mission() != conf.Mission {
		t.Fatal("planner does not use the configuration")
	}
}

func TestLoadConfigDirectory(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "loi.yaml", `
search:
  profile: production
  max_iterations: 50
mission:
  omega: 90
`)
	t.Setenv(ConfigEnv, dir)
	t.Setenv("LOI_MISSION_INCLINATION", "5")
	conf, err := LoadConfig("")
	if err != nil {
		t.Fatal(err)
	}
	if conf.Profile.Name != "production" || conf.Profile.MaxIterations != 50 || conf.Profile.FineStep != ProductionProfile.FineStep {
		t.Fatalf("profile %+v", conf.Profile)
	}
	if conf.Mission.ArgPeriapsis != 90 || conf.Mission.Inclination != 5 {
		t.Fatalf("mission %+v", conf.Mission)
	}
}

func TestReadConfigOverrides(t *testing.T) {
	t.Setenv(ConfigEnv, "")
	path := writeConfig(t, t.TempDir(), "mission.toml", "[search]\nprofile = \"production\"\nworkers = 2\n\n[mission]\nperigee = 170.0\n")
	vp := NewViper()
	vp.Set("search.profile", "fast")
	vp.Set("search.workers", 6)
	conf, err := ReadConfig(vp, path)
	if err != nil {
		t.Fatal(err)
	}
	if vp.ConfigFileUsed() != path {
		t.Fatalf("read %q", vp.ConfigFileUsed())
	}
	if conf.Profile.Name != "fast" || conf.Profile.Workers != 6 || conf.Profile.CoarseStep != FastProfile.CoarseStep {
		t.Fatalf("overrides not applied: %+v", conf.Profile)
	}
	if conf.Mission.PerigeeAlt != 170 {
		t.Fatalf("mission %+v", conf.Mission)
	}
	if _, err := ReadConfig(NewViper(), path+".missing"); err == nil {
		t.Fatal("missing file accepted")
	}
}

func TestLoadConfigErrors(t *testing.T) {
	t.Setenv(ConfigEnv, "")
	dir := t.TempDir()
	for name, content := range map[string]string{
		"profile.toml":     "[search]\nprofile = \"turbo\"\n",
		"perigee.toml":     "[mission]\nperigee = 300.0\n",
		"inclination.toml": "[mission]\ninclination = 200.0\n",
		"step.toml":        "[search]\nfine_step = 5.0\n",
		"window.toml":      "[ephemeris]\nvalid_from = 2050-01-01T00:00:00Z\nvalid_until = 2000-01-01T00:00:00Z\n",
	} {
		if _, err := LoadConfig(writeConfig(t, dir, name, content)); err == nil {
			t.Fatalf("%s: invalid configuration accepted", name)
		}
	}
	if _, err := LoadConfig(filepath.Join(dir, "missing.toml")); err == nil {
		t.Fatal("missing file accepted")
	}
	t.Setenv(ConfigEnv, filepath.Join(dir, "nowhere"))
	if _, err := LoadConfig(""); err == nil {
		t.Fatal("missing configuration directory accepted")
	}
}

func TestProfiles(t *testing.T) {
	for _, name := range []string{"", "production", "Production"} {
		if prof, err := ProfileFromString(name); err != nil || prof != ProductionProfile {
			t.Fatalf("%q: %+v %v", name, prof, err)
		}
	}
	for _, name := range []string{"fast", "test"} {
		if prof, err := ProfileFromString(name); err != nil || prof != FastProfile {
			t.Fatalf("%q: %+v %v", name, prof, err)
		}
	}
	if _, err := ProfileFromString("turbo"); err == nil {
		t.Fatal("unknown profile accepted")
	}
	for _, prof := range []Profile{ProductionProfile, FastProfile} {
		if err := prof.Validate(); err != nil {
			t.Fatal(err)
		}
	}
	for _, modify := range []func(*Profile){
		func(p *Profile) { p.CoarseStep = 0 },
		func(p *Profile) { p.FineStep = 3 },
		func(p *Profile) { p.FineWindow = -1 },
		func(p *Profile) { p.Tolerance = 0 },
		func(p *Profile) { p.MaxIterations = 0 },
		func(p *Profile) { p.SimplexApogee = 0 },
		func(p *Profile) { p.RAANStep = 0 },
		func(p *Profile) { p.ApogeeSpread = 1 },
		func(p *Profile) { p.ApogeeSeeds = 0 },
		func(p *Profile) { p.ScanStep = 0 },
	} {
		prof := FastProfile
		modify(&prof)
		if err := prof.Validate(); err == nil {
			t.Fatalf("invalid profile accepted: %+v", prof)
		}
	}
}
