package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v2"
)

// Job names known to the scheduler.
const (
	JobRoomChecks        = "room_checks"
	JobPostExpiration    = "post_expiration"
	JobMemberActivity    = "member_activity"
	JobBadgeAwards       = "badge_awards"
	JobNotificationBatch = "notification_batch"
)

// JobNames lists the jobs in the order they are registered.
var JobNames = []string{
	JobRoomChecks,
	JobPostExpiration,
	JobMemberActivity,
	JobBadgeAwards,
	JobNotificationBatch,
}

var (
	ErrRequired = errors.New("require setting.")
	ErrConflict = errors.New("conflict setting.")
	ErrUnknown  = errors.New("unknown setting.")
)

var defaultSchedules = map[string]string{
	JobRoomChecks:        "0 * * * *",
	JobPostExpiration:    "0 0 * * *",
	JobMemberActivity:    "0 6 * * *",
	JobBadgeAwards:       "0 3 * * *",
	JobNotificationBatch: "0 */6 * * *",
}

type Job struct {
	Enabled  *bool  `yaml:"enabled"`
	Schedule string `yaml:"schedule"`
}

// IsEnabled treats a missing enabled flag as true.
func (j Job) IsEnabled() bool {
	return j.Enabled == nil || *j.Enabled
}

type Rooms struct {
	MinMembers   int           `yaml:"min_members"`
	MinPosters   int           `yaml:"min_posters"`
	PosterWindow time.Duration `yaml:"poster_window"`
}

type Compliance struct {
	PostingFrequencyDays  int      `yaml:"posting_frequency_days"`
	ViewingFrequencyDays  int      `yaml:"viewing_frequency_days"`
	InactivityWarningDays int      `yaml:"inactivity_warning_days"`
	Moderators            []string `yaml:"moderators"`
}

type Posts struct {
	ExpiringSoonDays int `yaml:"expiring_soon_days"`
}

type Notifications struct {
	BatchSize       int `yaml:"batch_size"`
	DigestThreshold int `yaml:"digest_threshold"`
}

// Configuration is built once at startup and never mutated afterwards.
type Configuration struct {
	Env           string         `yaml:"env"`
	DatabaseDSN   string         `yaml:"database_dsn"`
	RedisURL      string         `yaml:"redis_url"`
	OpsAddr       string         `yaml:"ops_addr"`
	RunTimeout    time.Duration  `yaml:"run_timeout"`
	Jobs          map[string]Job `yaml:"jobs"`
	Rooms         Rooms          `yaml:"rooms"`
	Compliance    Compliance     `yaml:"compliance"`
	Posts         Posts          `yaml:"posts"`
	Notifications Notifications  `yaml:"notifications"`
}

func (c *Configuration) IsDevelopment() bool {
	return c.Env == "development"
}

// Job returns the normalized settings of a job.
func (c *Configuration) Job(name string) Job {
	return c.Jobs[name]
}

// ViewingWarningDays is the day count from which a viewing warning is sent.
func (c *Configuration) ViewingWarningDays() int {
	return c.Compliance.ViewingFrequencyDays - 2
}

// Default returns a configuration holding every default value.
func Default() *Configuration {
	c := &Configuration{}
	fillBlankSettings(c)
	return c
}

// LoadFromYaml parses yamlStr strictly, fills the defaults and validates the
// result.
func LoadFromYaml(yamlStr string) (*Configuration, error) {
	c := &Configuration{}
	if err := yaml.UnmarshalStrict([]byte(yamlStr), c); err != nil {
		return nil, err
	}

	fillBlankSettings(c)

	if err := mandatoryCheck(c); err != nil {
		return nil, err
	}

	return c, nil
}

// Load reads the optional .env file and the YAML file at path (may be empty),
// then applies ROOMWARDEN_* environment overrides.
func Load(path string) (*Configuration, error) {
	_ = godotenv.Load()

	var raw []byte
	if path != "" {
		var err error
		raw, err = os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read config file %s", path)
		}
	}

	c := &Configuration{}
	if err := yaml.UnmarshalStrict(raw, c); err != nil {
		return nil, errors.Wrapf(err, "failed to parse config file %s", path)
	}

	applyEnv(c)
	fillBlankSettings(c)

	if err := mandatoryCheck(c); err != nil {
		return nil, err
	}

	return c, nil
}

func applyEnv(c *Configuration) {
	if v := os.Getenv("ROOMWARDEN_ENV"); v != "" {
		c.Env = v
	}
	if v := os.Getenv("ROOMWARDEN_DATABASE_DSN"); v != "" {
		c.DatabaseDSN = v
	}
	if v := os.Getenv("ROOMWARDEN_REDIS_URL"); v != "" {
		c.RedisURL = v
	}
	if v := os.Getenv("ROOMWARDEN_OPS_ADDR"); v != "" {
		c.OpsAddr = v
	}
	if v := os.Getenv("ROOMWARDEN_MODERATORS"); v != "" {
		c.Compliance.Moderators = nil
		for _, m := range strings.Split(v, ",") {
			m = strings.TrimSpace(m)
			if m != "" {
				c.Compliance.Moderators = append(c.Compliance.Moderators, m)
			}
		}
	}
}

func fillBlankSettings(c *Configuration) {
	if c.Env == "" {
		c.Env = "development"
	}
	if c.OpsAddr == "" {
		c.OpsAddr = ":8090"
	}
	if c.RunTimeout == 0 {
		c.RunTimeout = 10 * time.Minute
	}

	jobs := make(map[string]Job, len(JobNames))
	for name, j := range c.Jobs {
		jobs[name] = j
	}
	for _, name := range JobNames {
		j := jobs[name]
		if j.Schedule == "" {
			j.Schedule = defaultSchedules[name]
		}
		if j.Enabled == nil {
			enabled := true
			j.Enabled = &enabled
		}
		jobs[name] = j
	}
	c.Jobs = jobs

	if c.Rooms.MinMembers == 0 {
		c.Rooms.MinMembers = 10
	}
	if c.Rooms.MinPosters == 0 {
		c.Rooms.MinPosters = 4
	}
	if c.Rooms.PosterWindow == 0 {
		c.Rooms.PosterWindow = 72 * time.Hour
	}

	if c.Compliance.PostingFrequencyDays == 0 {
		c.Compliance.PostingFrequencyDays = 14
	}
	if c.Compliance.ViewingFrequencyDays == 0 {
		c.Compliance.ViewingFrequencyDays = 7
	}
	if c.Compliance.InactivityWarningDays == 0 {
		c.Compliance.InactivityWarningDays = 12
	}

	if c.Posts.ExpiringSoonDays == 0 {
		c.Posts.ExpiringSoonDays = 3
	}

	if c.Notifications.BatchSize == 0 {
		c.Notifications.BatchSize = 50
	}
	if c.Notifications.DigestThreshold == 0 {
		c.Notifications.DigestThreshold = 5
	}
}

// mandatoryCheck only checks values after the defaults are filled.
func mandatoryCheck(c *Configuration) error {
	for name, j := range c.Jobs {
		if _, ok := defaultSchedules[name]; !ok {
			return fmt.Errorf("%w job:%v", ErrUnknown, name)
		}
		if _, err := cron.ParseStandard(j.Schedule); err != nil {
			return fmt.Errorf("%w job:%v schedule:%q: %v", ErrConflict, name, j.Schedule, err)
		}
	}

	if c.Rooms.MinMembers < 0 {
		return fmt.Errorf("%w field:rooms.min_members", ErrConflict)
	}
	if c.Rooms.MinPosters < 0 {
		return fmt.Errorf("%w field:rooms.min_posters", ErrConflict)
	}
	if c.Rooms.PosterWindow < 0 {
		return fmt.Errorf("%w field:rooms.poster_window", ErrConflict)
	}

	cp := c.Compliance
	if cp.InactivityWarningDays >= cp.PostingFrequencyDays {
		return fmt.Errorf("%w field:compliance.inactivity_warning_days, compliance.posting_frequency_days", ErrConflict)
	}
	if cp.ViewingFrequencyDays < 2 {
		return fmt.Errorf("%w field:compliance.viewing_frequency_days", ErrConflict)
	}

	if c.Notifications.BatchSize < 0 {
		return fmt.Errorf("%w field:notifications.batch_size", ErrConflict)
	}

	if c.Env == "production" && c.DatabaseDSN == "" {
		return fmt.Errorf("%w field:database_dsn", ErrRequired)
	}

	return nil
}

type Service interface {
	GetConfiguration() *Configuration
}

var _ Service = (*ServiceImpl)(nil)

// ServiceImpl hands out the configuration it was built with. Callers must not
// modify the returned value.
type ServiceImpl struct {
	configuration *Configuration
}

func NewConfigService(c *Configuration) *ServiceImpl {
	cp := *c
	cp.Jobs = make(map[string]Job, len(c.Jobs))
	for name, j := range c.Jobs {
		cp.Jobs[name] = j
	}
	cp.Compliance.Moderators = append([]string(nil), c.Compliance.Moderators...)
	return &ServiceImpl{configuration: &cp}
}

func (s *ServiceImpl) GetConfiguration() *Configuration {
	return s.configuration
}
