package loi

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// ConfigEnv is the environment variable holding the directory of the default
// configuration file (loi.toml, loi.yaml...).
const ConfigEnv = "LOI_CONFIG"

// Profile trades accuracy for speed. Both shipped profiles are legitimate
// operating points: Production for planning, Fast for automated runs.
type Profile struct {
	Name string `mapstructure:"name"`
	// Closest approach search.
	CoarseStep float64 `mapstructure:"coarse_step"` // degrees of true anomaly, full revolution scan
	FineStep   float64 `mapstructure:"fine_step"`   // degrees of true anomaly, refinement
	FineWindow float64 `mapstructure:"fine_window"` // half width of the refinement, degrees
	// Nelder-Mead.
	Tolerance     float64 `mapstructure:"tolerance"` // km, worst-best spread of the simplex
	MaxIterations int     `mapstructure:"max_iterations"`
	SimplexRAAN   float64 `mapstructure:"simplex_raan"`   // initial simplex edge along RAAN, degrees
	SimplexApogee float64 `mapstructure:"simplex_apogee"` // initial simplex edge along apogee, fraction of the seed
	// Multi-start grid.
	RAANSpan     float64 `mapstructure:"raan_span"`     // degrees either side of the target's right ascension
	RAANStep     float64 `mapstructure:"raan_step"`     // degrees
	ApogeeSpread float64 `mapstructure:"apogee_spread"` // fraction either side of the target's range
	ApogeeSeeds  int     `mapstructure:"apogee_seeds"`
	Workers      int     `mapstructure:"workers"` // seeds evaluated in parallel, 1 is sequential
	// Epoch search.
	ScanStep          time.Duration `mapstructure:"scan_step"`
	CrossingTolerance time.Duration `mapstructure:"crossing_tolerance"`
}

// ProductionProfile is the accurate profile used for planning.
var ProductionProfile = Profile{
	Name:              "production",
	CoarseStep:        0.5,
	FineStep:          0.01,
	FineWindow:        2,
	Tolerance:         0.01,
	MaxIterations:     300,
	SimplexRAAN:       1,
	SimplexApogee:     0.01,
	RAANSpan:          5,
	RAANStep:          1,
	ApogeeSpread:      0.1,
	ApogeeSeeds:       5,
	Workers:           1,
	ScanStep:          24 * time.Hour,
	CrossingTolerance: time.Second,
}

// FastProfile is the coarse profile used for automated runs.
var FastProfile = Profile{
	Name:              "fast",
	CoarseStep:        2,
	FineStep:          0.05,
	FineWindow:        2,
	Tolerance:         1,
	MaxIterations:     100,
	SimplexRAAN:       1,
	SimplexApogee:     0.01,
	RAANSpan:          5,
	RAANStep:          2.5,
	ApogeeSpread:      0.1,
	ApogeeSeeds:       3,
	Workers:           1,
	ScanStep:          24 * time.Hour,
	CrossingTolerance: time.Second,
}

// ProfileFromString returns a shipped profile from its name.
func ProfileFromString(name string) (Profile, error) {
	switch strings.ToLower(name) {
	case "production", "":
		return ProductionProfile, nil
	case "fast", "test":
		return FastProfile, nil
	default:
		return Profile{}, errors.Errorf("unknown profile '%s'", name)
	}
}

// Validate returns an error if the profile cannot drive a search.
func (p Profile) Validate() error {
	switch {
	case p.CoarseStep <= 0 || p.CoarseStep > 90:
		return errors.Errorf("profile %s: coarse step %f deg outside (0, 90]", p.Name, p.CoarseStep)
	case p.FineStep <= 0 || p.FineStep > p.CoarseStep:
		return errors.Errorf("profile %s: fine step %f deg outside (0, coarse step]", p.Name, p.FineStep)
	case p.FineWindow < 0:
		return errors.Errorf("profile %s: negative fine window", p.Name)
	case p.Tolerance <= 0:
		return errors.Errorf("profile %s: tolerance must be positive", p.Name)
	case p.MaxIterations <= 0:
		return errors.Errorf("profile %s: max iterations must be positive", p.Name)
	case p.SimplexRAAN <= 0 || p.SimplexApogee <= 0:
		return errors.Errorf("profile %s: initial simplex edges must be positive", p.Name)
	case p.RAANSpan < 0 || p.RAANStep <= 0:
		return errors.Errorf("profile %s: invalid RAAN grid (span=%f step=%f)", p.Name, p.RAANSpan, p.RAANStep)
	case p.ApogeeSpread < 0 || p.ApogeeSpread >= 1 || p.ApogeeSeeds <= 0:
		return errors.Errorf("profile %s: invalid apogee seeds (spread=%f count=%d)", p.Name, p.ApogeeSpread, p.ApogeeSeeds)
	case p.ScanStep <= 0:
		return errors.Errorf("profile %s: scan step must be positive", p.Name)
	}
	return nil
}

// MissionProfile holds the parameters fixed for a given mission.
type MissionProfile struct {
	PerigeeAlt   float64 `mapstructure:"perigee"`     // km
	ArgPeriapsis float64 `mapstructure:"omega"`       // degrees
	Inclination  float64 `mapstructure:"inclination"` // degrees
}

// DefaultMission is the Earth parking orbit of the reference lunar mission.
var DefaultMission = MissionProfile{PerigeeAlt: 180, ArgPeriapsis: 178, Inclination: 21.5}

// EphemerisConfig configures the Moon ephemeris.
type EphemerisConfig struct {
	ValidFrom  time.Time
	ValidUntil time.Time
	DeltaT     time.Duration
}

// Config is the full configuration of the planner.
type Config struct {
	Mission   MissionProfile
	Profile   Profile
	Ephemeris EphemerisConfig
}

// Moon returns the ephemeris this configuration describes.
func (c Config) Moon() *MeeusMoon {
	m := NewMeeusMoon()
	m.ValidFrom = c.Ephemeris.ValidFrom
	m.ValidUntil = c.Ephemeris.ValidUntil
	m.DeltaT = c.Ephemeris.DeltaT
	m.Tolerance = c.Profile.CrossingTolerance
	return m
}

// DefaultConfig returns the production configuration of the reference mission.
func DefaultConfig() Config {
	moon := NewMeeusMoon()
	return Config{
		Mission:   DefaultMission,
		Profile:   ProductionProfile,
		Ephemeris: EphemerisConfig{ValidFrom: moon.ValidFrom, ValidUntil: moon.ValidUntil, DeltaT: moon.DeltaT},
	}
}

// SetDefaults registers every configuration key with its default value.
func SetDefaults(v *viper.Viper) {
	def := DefaultConfig()
	v.SetDefault("mission.perigee", def.Mission.PerigeeAlt)
	v.SetDefault("mission.omega", def.Mission.ArgPeriapsis)
	v.SetDefault("mission.inclination", def.Mission.Inclination)
	v.SetDefault("search.profile", def.Profile.Name)
	v.SetDefault("ephemeris.valid_from", def.Ephemeris.ValidFrom)
	v.SetDefault("ephemeris.valid_until", def.Ephemeris.ValidUntil)
	v.SetDefault("ephemeris.delta_t", def.Ephemeris.DeltaT)
}

// NewViper returns a viper instance with the defaults and the LOI_ environment prefix.
func NewViper() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix("loi")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// LoadConfig reads the configuration file at path. When path is empty, the
// file named "loi" is looked up in the directory given by LOI_CONFIG; if that
// variable is unset the defaults (and environment) are used.
func LoadConfig(path string) (Config, error) {
	return ReadConfig(NewViper(), path)
}

// ReadConfig is LoadConfig on a viper instance set up by the caller, for
// example one with command line flags bound to its keys.
func ReadConfig(v *viper.Viper, path string) (Config, error) {
	if path != "" {
		v.SetConfigFile(path)
	} else if dir := os.Getenv(ConfigEnv); dir != "" {
		v.SetConfigName("loi")
		v.AddConfigPath(filepath.Clean(dir))
	}
	if path != "" || os.Getenv(ConfigEnv) != "" {
		if err := v.ReadInConfig(); err != nil {
			return Config{}, errors.Wrap(err, "reading configuration")
		}
	}
	return ConfigFromViper(v)
}

// ConfigFromViper builds the configuration out of an already loaded viper instance.
// Individual keys under search.* override the named profile.
func ConfigFromViper(v *viper.Viper) (Config, error) {
	profile, err := ProfileFromString(v.GetString("search.profile"))
	if err != nil {
		return Config{}, err
	}
	if sub := v.Sub("search"); sub != nil {
		if err := sub.Unmarshal(&profile); err != nil {
			return Config{}, errors.Wrap(err, "search section")
		}
	}
	// Bound flags are not part of the search sub tree.
	if workers := v.GetInt("search.workers"); workers > 0 {
		profile.Workers = workers
	}
	conf := Config{
		Mission: MissionProfile{
			PerigeeAlt:   v.GetFloat64("mission.perigee"),
			ArgPeriapsis: v.GetFloat64("mission.omega"),
			Inclination:  v.GetFloat64("mission.inclination"),
		},
		Profile: profile,
		Ephemeris: EphemerisConfig{
			ValidFrom:  v.GetTime("ephemeris.valid_from").UTC(),
			ValidUntil: v.GetTime("ephemeris.valid_until").UTC(),
			DeltaT:     v.GetDuration("ephemeris.delta_t"),
		},
	}
	return conf, conf.Validate()
}

// Validate returns an error if any section is invalid.
func (c Config) Validate() error {
	if err := ValidateAltitudes(c.Mission.PerigeeAlt, MaxApogeeAltitude); err != nil {
		return errors.Wrap(err, "mission")
	}
	if c.Mission.PerigeeAlt > MinApogeeAltitude {
		return errors.Errorf("mission: perigee altitude %.1f km above the lowest apogee %.1f km", c.Mission.PerigeeAlt, MinApogeeAltitude)
	}
	if c.Mission.Inclination < 0 || c.Mission.Inclination > 180 {
		return errors.Errorf("mission: inclination %.3f deg outside [0, 180]", c.Mission.Inclination)
	}
	if err := c.Profile.Validate(); err != nil {
		return err
	}
	if !c.Ephemeris.ValidUntil.After(c.Ephemeris.ValidFrom) {
		return errors.Errorf("ephemeris: empty validity window %s to %s", c.Ephemeris.ValidFrom, c.Ephemeris.ValidUntil)
	}
	return nil
}
