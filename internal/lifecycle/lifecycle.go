package lifecycle

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/natefinch/atomic"

	"github.com/ombrelin/carnet/internal/archive"
	"github.com/ombrelin/carnet/internal/extract"
	"github.com/ombrelin/carnet/internal/index"
	"github.com/ombrelin/carnet/internal/journal"
	"github.com/ombrelin/carnet/internal/note"
	"github.com/ombrelin/carnet/internal/ui"
)

// State of the working area, derived from the filesystem on every call.
type State int

const (
	Empty State = iota
	Active
)

func (s State) String() string {
	if s == Active {
		return "active"
	}
	return "empty"
}

// StartResult reports what Start did.
type StartResult struct {
	DraftName string   // draft that received the previous note, "" when none
	Copied    []string // template items placed into the working area
}

// FinishResult reports what Finish did. A guarded no-op sets Skipped and
// leaves every other field empty.
type FinishResult struct {
	Skipped       bool
	Reason        string
	DateKey       string
	Year          string
	MonthName     string
	EntryPath     string
	Link          string
	Summary       string
	BackupName    string
	Copied        []string
	SkippedAssets []string
}

// RevertResult reports what Revert did. DraftName may be set even when the
// revert itself was skipped: the working note is set aside before the guards
// run.
type RevertResult struct {
	Skipped       bool
	Reason        string
	DraftName     string
	EntryDate     string
	BackupName    string
	IndexRestored bool
}

// Status is a read-only snapshot of the journal state.
type Status struct {
	State       State
	Changed     bool // working area differs from the template
	LatestEntry *archive.Entry
	Drafts      int
	Backups     int
}

// AreaState derives the working area state.
func AreaState(j *journal.Journal) (State, error) {
	empty, err := note.Empty(j.NotingArea())
	if err != nil {
		return Empty, err
	}
	if empty {
		return Empty, nil
	}
	return Active, nil
}

// Start populates the working area from the template. A note already in
// progress is set aside as a new draft first.
func Start(j *journal.Journal) (*StartResult, error) {
	draft, err := snapshotArea(j, time.Now())
	if err != nil {
		return nil, err
	}

	area := j.NotingArea()
	if err := os.MkdirAll(area, 0755); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", area, err)
	}
	report, err := note.CopyInterest(j.TemplateDir(), area, false)
	if err != nil {
		return nil, fmt.Errorf("failed to copy template: %w", err)
	}
	return &StartResult{DraftName: draft, Copied: report.Copied}, nil
}

// Finish archives the working note under notes/<year>/<month>/<date>,
// inserts its link into the year index and clears the working area.
// Without changes against the template this is a guarded no-op.
func Finish(j *journal.Journal) (*FinishResult, error) {
	area := j.NotingArea()

	empty, err := note.Empty(area)
	if err != nil {
		return nil, err
	}
	if empty {
		return &FinishResult{Skipped: true, Reason: "the working area holds no note"}, nil
	}
	changed, err := note.DiffersFrom(area, j.TemplateDir())
	if err != nil {
		return nil, err
	}
	if !changed {
		return &FinishResult{Skipped: true, Reason: "no changes compared to the template"}, nil
	}

	now := time.Now()
	dateKey := archive.DateKey(now)
	year := now.Format("2006")
	month := now.Format("01")

	entryDir := j.EntryDir(year, month, dateKey)
	if _, err := os.Stat(entryDir); err == nil {
		return nil, fmt.Errorf("an entry for %s already exists at %s (run 'carnet revert' first)", dateKey, entryDir)
	}
	if err := os.MkdirAll(entryDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", entryDir, err)
	}
	report, err := note.CopyInterest(area, entryDir, true)
	if err != nil {
		return nil, fmt.Errorf("failed to archive note: %w", err)
	}

	// Extraction reads the archived copy. Failures degrade to sentinels so
	// the transition always moves forward.
	temperature, weather := extract.UnknownTemperature, extract.UnknownWeather
	summary := extract.SummaryUnavailable
	docPath, err := note.DocumentPath(entryDir)
	if err != nil {
		return nil, err
	}
	if docPath == "" {
		ui.Logger.Warn("archived entry has no README.md", "entry", dateKey)
	} else {
		doc, err := os.ReadFile(docPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read archived note: %w", err)
		}
		var ok bool
		if temperature, weather, ok = extract.Weather(doc); !ok {
			ui.Logger.Warn("weather caption not found, using sentinels", "entry", dateKey)
		}
		if summary, ok = extract.Summary(doc, j.Config.Note.SummaryMaxChars); !ok {
			ui.Logger.Warn("summary unavailable", "entry", dateKey)
		}
	}

	tab := j.Locale()
	link := index.FormatLink(now.Day(), tab.Weekday(now.Weekday()), temperature, weather,
		fmt.Sprintf("./%s/%s/", month, dateKey))

	idxPath := j.YearIndexPath(year)
	data, err := os.ReadFile(idxPath)
	if os.IsNotExist(err) {
		data = index.Scaffold(year)
	} else if err != nil {
		return nil, fmt.Errorf("failed to read year index: %w", err)
	}

	// Snapshot the index before touching it so a revert can roll it back.
	serial, err := archive.NextSerial(j.BackupsDir(), dateKey)
	if err != nil {
		return nil, err
	}
	backupName := archive.SerialName(dateKey, serial)
	backupDir := filepath.Join(j.BackupsDir(), backupName)
	if err := os.MkdirAll(backupDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create backup %s: %w", backupName, err)
	}
	if err := os.WriteFile(filepath.Join(backupDir, note.DocumentName), data, 0644); err != nil {
		return nil, fmt.Errorf("failed to back up year index: %w", err)
	}

	doc := index.Parse(data)
	monthName := tab.Month(now.Month())
	index.Insert(doc, monthName, link)
	if err := atomic.WriteFile(idxPath, bytes.NewReader(doc.Bytes())); err != nil {
		return nil, fmt.Errorf("failed to write year index: %w", err)
	}

	if _, err := note.ClearInterest(area); err != nil {
		return nil, err
	}

	return &FinishResult{
		DateKey:       dateKey,
		Year:          year,
		MonthName:     monthName,
		EntryPath:     entryDir,
		Link:          link,
		Summary:       summary,
		BackupName:    backupName,
		Copied:        report.Copied,
		SkippedAssets: report.Skipped,
	}, nil
}

// Revert undoes the most recent finish: the entry's content returns to the
// working area, the year index is restored from its backup and the entry is
// deleted. Entries outside the freshness window are left alone.
func Revert(j *journal.Journal) (*RevertResult, error) {
	now := time.Now()
	draft, err := snapshotArea(j, now)
	if err != nil {
		return nil, err
	}
	res := &RevertResult{DraftName: draft}

	entry, err := archive.LatestEntry(j.NotesDir())
	if err != nil {
		return nil, err
	}
	if entry == nil {
		res.Skipped = true
		res.Reason = "no archived notes to revert"
		return res, nil
	}
	res.EntryDate = entry.Date

	window := time.Duration(j.Config.Revert.FreshnessHours) * time.Hour
	if now.Sub(entry.Day) > window {
		res.Skipped = true
		res.Reason = fmt.Sprintf("entry %s is outside the %dh revert window", entry.Date, j.Config.Revert.FreshnessHours)
		return res, nil
	}

	area := j.NotingArea()
	if err := os.MkdirAll(area, 0755); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", area, err)
	}
	if _, err := note.CopyInterest(entry.Path, area, false); err != nil {
		return nil, fmt.Errorf("failed to restore note content: %w", err)
	}

	snap, err := archive.LatestSnapshot(j.BackupsDir())
	if err != nil {
		return nil, err
	}
	if snap == nil {
		ui.Logger.Warn("no year index backup found, leaving the index untouched")
	} else {
		res.BackupName = snap.Name
		backupDoc, err := note.DocumentPath(snap.Path)
		if err != nil {
			return nil, err
		}
		if backupDoc == "" {
			ui.Logger.Warn("backup holds no README.md, discarding it", "backup", snap.Name)
		} else {
			data, err := os.ReadFile(backupDoc)
			if err != nil {
				return nil, fmt.Errorf("failed to read backup %s: %w", snap.Name, err)
			}
			if err := atomic.WriteFile(j.YearIndexPath(entry.Year), bytes.NewReader(data)); err != nil {
				return nil, fmt.Errorf("failed to restore year index: %w", err)
			}
			res.IndexRestored = true
		}
		if err := os.RemoveAll(snap.Path); err != nil {
			return nil, fmt.Errorf("failed to delete backup %s: %w", snap.Name, err)
		}
	}

	if err := os.RemoveAll(entry.Path); err != nil {
		return nil, fmt.Errorf("failed to delete entry %s: %w", entry.Date, err)
	}
	if err := archive.PruneEmptyDirs(j.YearDir(entry.Year)); err != nil {
		return nil, err
	}
	return res, nil
}

// Report assembles the read-only journal status.
func Report(j *journal.Journal) (*Status, error) {
	st := &Status{}

	state, err := AreaState(j)
	if err != nil {
		return nil, err
	}
	st.State = state
	if state == Active {
		changed, err := note.DiffersFrom(j.NotingArea(), j.TemplateDir())
		if err != nil {
			return nil, err
		}
		st.Changed = changed
	}

	entry, err := archive.LatestEntry(j.NotesDir())
	if err != nil {
		return nil, err
	}
	st.LatestEntry = entry

	drafts, err := archive.ListSnapshots(j.DraftsDir())
	if err != nil {
		return nil, err
	}
	st.Drafts = len(drafts)

	backups, err := archive.ListSnapshots(j.BackupsDir())
	if err != nil {
		return nil, err
	}
	st.Backups = len(backups)

	return st, nil
}

// snapshotArea sets the working note aside as a new draft and clears the
// working area. Returns the draft name, or "" when the area held nothing.
func snapshotArea(j *journal.Journal, now time.Time) (string, error) {
	area := j.NotingArea()
	empty, err := note.Empty(area)
	if err != nil {
		return "", err
	}
	if empty {
		return "", nil
	}

	dateKey := archive.DateKey(now)
	serial, err := archive.NextSerial(j.DraftsDir(), dateKey)
	if err != nil {
		return "", err
	}
	name := archive.SerialName(dateKey, serial)
	draftDir := filepath.Join(j.DraftsDir(), name)
	if err := os.MkdirAll(draftDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create draft %s: %w", name, err)
	}
	if _, err := note.CopyInterest(area, draftDir, false); err != nil {
		return "", fmt.Errorf("failed to snapshot working note: %w", err)
	}
	if _, err := note.ClearInterest(area); err != nil {
		return "", fmt.Errorf("failed to clear working area: %w", err)
	}
	return name, nil
}
