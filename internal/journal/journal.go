package journal

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ombrelin/carnet/internal/index"
	"github.com/ombrelin/carnet/internal/locale"
	"github.com/ombrelin/carnet/internal/note"
)

// Fixed names of the journal layout under the root.
const (
	NotingAreaName = "noting_area"
	NotesDirName   = "notes"
	BackOfficeName = "back_office"
	TemplateName   = "template"
	DraftsName     = "drafts"
	ConfigName     = "config.yaml"
)

// backupRel is the backup location for year index snapshots.
var backupRel = filepath.Join(BackOfficeName, "notes_backup", "year_notes")

// NoteConfig holds note formatting settings.
type NoteConfig struct {
	Locale          string `yaml:"locale"`
	SummaryMaxChars int    `yaml:"summary_max_chars"`
}

// RevertConfig holds revert window settings.
type RevertConfig struct {
	FreshnessHours int `yaml:"freshness_hours"`
}

// NotifyConfig holds desktop notification settings.
type NotifyConfig struct {
	OnFinish bool `yaml:"on_finish"`
}

// Config holds carnet configuration.
type Config struct {
	Version string       `yaml:"version"`
	Note    NoteConfig   `yaml:"note,omitempty"`
	Revert  RevertConfig `yaml:"revert,omitempty"`
	Notify  NotifyConfig `yaml:"notify,omitempty"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Version: "1",
		Note: NoteConfig{
			Locale:          "fr",
			SummaryMaxChars: 40,
		},
		Revert: RevertConfig{
			FreshnessHours: 24,
		},
		Notify: NotifyConfig{
			OnFinish: true,
		},
	}
}

// Journal represents a loaded journal root.
type Journal struct {
	Root   string
	Config Config
}

// Issue represents a health check finding.
type Issue struct {
	Severity string // "warning" or "error"
	Message  string
}

// Root returns the journal root, respecting the CARNET_ROOT env var.
func Root() string {
	if r := os.Getenv("CARNET_ROOT"); r != "" {
		return r
	}
	wd, err := os.Getwd()
	if err != nil {
		return "."
	}
	return wd
}

const starterTemplate = `# Note du jour

![couverture](./assets/cover.jpg)

### <date>, <temperature>, <meteo>, <lieu>

Raconter la journee ici.
`

// Init creates the journal directory structure under root.
func Init(root string, force bool) error {
	if _, err := os.Stat(filepath.Join(root, BackOfficeName)); err == nil && !force {
		return fmt.Errorf("journal already initialized at %s (use --force to reinitialize)", root)
	}

	year := time.Now().Format("2006")
	dirs := []string{
		filepath.Join(root, NotingAreaName),
		filepath.Join(root, NotesDirName, year),
		filepath.Join(root, BackOfficeName, TemplateName, note.AssetsDirName),
		filepath.Join(root, BackOfficeName, DraftsName),
		filepath.Join(root, backupRel),
	}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0755); err != nil {
			return fmt.Errorf("failed to create %s: %w", d, err)
		}
	}

	// User content is never overwritten, not even with force.
	tplDoc := filepath.Join(root, BackOfficeName, TemplateName, note.DocumentName)
	if _, err := os.Stat(tplDoc); err != nil {
		if err := os.WriteFile(tplDoc, []byte(starterTemplate), 0644); err != nil {
			return fmt.Errorf("failed to write template note: %w", err)
		}
	}
	yearIndex := filepath.Join(root, NotesDirName, year, note.DocumentName)
	if _, err := os.Stat(yearIndex); err != nil {
		if err := os.WriteFile(yearIndex, index.Scaffold(year), 0644); err != nil {
			return fmt.Errorf("failed to write year index: %w", err)
		}
	}

	cfg := DefaultConfig()
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	cfgPath := filepath.Join(root, BackOfficeName, ConfigName)
	if err := os.WriteFile(cfgPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Load opens an existing journal root.
// Missing config fields are filled from defaults; journals created by hand
// may have no config.yaml at all, which is fine.
func Load(root string) (*Journal, error) {
	info, err := os.Stat(filepath.Join(root, BackOfficeName))
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("no journal at %s (run 'carnet init' first)", root)
	}

	cfg := DefaultConfig()
	cfgPath := filepath.Join(root, BackOfficeName, ConfigName)
	data, err := os.ReadFile(cfgPath)
	if err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("invalid config at %s: %w", cfgPath, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("cannot read config at %s: %w", cfgPath, err)
	}
	return &Journal{Root: root, Config: cfg}, nil
}

// SaveConfig writes the current config to config.yaml.
func (j *Journal) SaveConfig() error {
	data, err := yaml.Marshal(j.Config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(j.ConfigPath(), data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// SetConfigValue sets a config value by dot-path key (e.g. "note.locale").
func (j *Journal) SetConfigValue(key, value string) error {
	switch key {
	case "note.locale":
		if _, ok := locale.ForTag(value); !ok {
			return fmt.Errorf("unsupported locale %q (available: fr, en)", value)
		}
		j.Config.Note.Locale = value
	case "note.summary_max_chars":
		n, err := strconv.Atoi(value)
		if err != nil || n < 4 {
			return fmt.Errorf("note.summary_max_chars must be an integer >= 4")
		}
		j.Config.Note.SummaryMaxChars = n
	case "revert.freshness_hours":
		n, err := strconv.Atoi(value)
		if err != nil || n < 1 {
			return fmt.Errorf("revert.freshness_hours must be a positive integer")
		}
		j.Config.Revert.FreshnessHours = n
	case "notify.on_finish":
		j.Config.Notify.OnFinish = value == "true"
	default:
		return fmt.Errorf("unknown config key: %s\nValid keys: note.locale, note.summary_max_chars, revert.freshness_hours, notify.on_finish", key)
	}
	return j.SaveConfig()
}

// Locale resolves the configured locale table, falling back to French.
func (j *Journal) Locale() locale.Table {
	if t, ok := locale.ForTag(j.Config.Note.Locale); ok {
		return t
	}
	return locale.Default()
}

// Path resolves a path within the journal root.
func (j *Journal) Path(parts ...string) string {
	all := append([]string{j.Root}, parts...)
	return filepath.Join(all...)
}

// NotingArea returns the working area directory.
func (j *Journal) NotingArea() string {
	return j.Path(NotingAreaName)
}

// NotesDir returns the archive tree root.
func (j *Journal) NotesDir() string {
	return j.Path(NotesDirName)
}

// YearDir returns the archive directory for a year.
func (j *Journal) YearDir(year string) string {
	return j.Path(NotesDirName, year)
}

// YearIndexPath returns the year index document for a year.
func (j *Journal) YearIndexPath(year string) string {
	return j.Path(NotesDirName, year, note.DocumentName)
}

// EntryDir returns the archive directory for a dated entry.
func (j *Journal) EntryDir(year, month, date string) string {
	return j.Path(NotesDirName, year, month, date)
}

// TemplateDir returns the note template directory.
func (j *Journal) TemplateDir() string {
	return j.Path(BackOfficeName, TemplateName)
}

// DraftsDir returns the drafts container.
func (j *Journal) DraftsDir() string {
	return j.Path(BackOfficeName, DraftsName)
}

// BackupsDir returns the year index backup container.
func (j *Journal) BackupsDir() string {
	return j.Path(backupRel)
}

// ConfigPath returns the config file location.
func (j *Journal) ConfigPath() string {
	return j.Path(BackOfficeName, ConfigName)
}

// CheckHealth verifies the journal structure.
func CheckHealth(root string) []Issue {
	var issues []Issue

	for _, rel := range requiredDirs() {
		p := filepath.Join(root, rel)
		info, err := os.Stat(p)
		if err != nil {
			issues = append(issues, Issue{"error", fmt.Sprintf("missing directory: %s", rel)})
		} else if !info.IsDir() {
			issues = append(issues, Issue{"error", fmt.Sprintf("expected directory but found file: %s", rel)})
		}
	}

	cfgPath := filepath.Join(root, BackOfficeName, ConfigName)
	data, err := os.ReadFile(cfgPath)
	if err != nil {
		issues = append(issues, Issue{"warning", "missing config.yaml (defaults in effect)"})
	} else {
		var cfg Config
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			issues = append(issues, Issue{"error", fmt.Sprintf("config.yaml is not valid YAML: %v", err)})
		}
	}

	tplDoc := filepath.Join(root, BackOfficeName, TemplateName, note.DocumentName)
	if _, err := os.Stat(tplDoc); err != nil {
		issues = append(issues, Issue{"warning", "template has no README.md (carnet start will copy nothing)"})
	}

	// Every year of archived notes should carry its index.
	for _, year := range yearDirs(root) {
		idx := filepath.Join(root, NotesDirName, year, note.DocumentName)
		if _, err := os.Stat(idx); err != nil {
			issues = append(issues, Issue{"warning", fmt.Sprintf("year %s has no README.md index", year)})
		}
	}

	area := filepath.Join(root, NotingAreaName)
	if entries, err := os.ReadDir(area); err == nil {
		for _, e := range entries {
			if !note.OfInterest(e.Name()) {
				issues = append(issues, Issue{"warning", fmt.Sprintf("noting_area contains an item outside the note set: %s", e.Name())})
			}
		}
	}

	return issues
}

// FixIssues attempts to repair simple structural issues.
func FixIssues(root string) []string {
	var fixed []string

	for _, rel := range requiredDirs() {
		p := filepath.Join(root, rel)
		if _, err := os.Stat(p); err != nil {
			if err := os.MkdirAll(p, 0755); err == nil {
				fixed = append(fixed, fmt.Sprintf("recreated missing directory: %s", rel))
			}
		}
	}

	cfgPath := filepath.Join(root, BackOfficeName, ConfigName)
	if _, err := os.Stat(cfgPath); err != nil {
		data, _ := yaml.Marshal(DefaultConfig())
		if os.WriteFile(cfgPath, data, 0644) == nil {
			fixed = append(fixed, "recreated missing config.yaml with defaults")
		}
	}

	for _, year := range yearDirs(root) {
		idx := filepath.Join(root, NotesDirName, year, note.DocumentName)
		if _, err := os.Stat(idx); err != nil {
			if os.WriteFile(idx, index.Scaffold(year), 0644) == nil {
				fixed = append(fixed, fmt.Sprintf("recreated notes/%s/README.md skeleton", year))
			}
		}
	}

	return fixed
}

func requiredDirs() []string {
	return []string{
		NotingAreaName,
		NotesDirName,
		BackOfficeName,
		filepath.Join(BackOfficeName, TemplateName),
		filepath.Join(BackOfficeName, DraftsName),
		backupRel,
	}
}

// yearDirs lists 4-digit year directories under notes/.
func yearDirs(root string) []string {
	entries, err := os.ReadDir(filepath.Join(root, NotesDirName))
	if err != nil {
		return nil
	}
	var years []string
	for _, e := range entries {
		if e.IsDir() && isYear(e.Name()) {
			years = append(years, e.Name())
		}
	}
	return years
}

func isYear(name string) bool {
	if len(name) != 4 {
		return false
	}
	for _, r := range name {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
