package archive

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
)

// nameLayout is the date key used by entry and snapshot folder names.
const nameLayout = "20060102"

// Entry is one archived note, keyed by its year/month/date path.
type Entry struct {
	Year  string // 4-digit year folder
	Month string // 2-digit month folder
	Date  string // 8-digit date folder
	Day   time.Time
	Path  string
}

// RelativeLink returns the index link target for the entry, "./<MM>/<date>/".
func (e *Entry) RelativeLink() string {
	return fmt.Sprintf("./%s/%s/", e.Month, e.Date)
}

// Snapshot is a dated, serial-numbered folder under the drafts or backups
// container.
type Snapshot struct {
	Name   string
	Date   string
	Serial int
	Day    time.Time
	Path   string
}

// DateKey formats a day as an 8-digit folder date.
func DateKey(day time.Time) string {
	return day.Format(nameLayout)
}

// ParseDateKey parses an 8-digit folder date in local time.
func ParseDateKey(name string) (time.Time, bool) {
	day, err := time.ParseInLocation(nameLayout, name, time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return day, true
}

// SerialName formats a snapshot folder name, "<date>_<NNN>".
func SerialName(dateKey string, serial int) string {
	return fmt.Sprintf("%s_%03d", dateKey, serial)
}

// NextSerial returns the smallest positive serial not used by any sibling of
// container named "<dateKey>_<serial>". Returns 1 when the container does
// not exist or has no well-formed siblings for the date; malformed names are
// skipped. Computed fresh on every call, so serials freed by deletion are
// reused.
func NextSerial(container, dateKey string) (int, error) {
	snaps, err := ListSnapshots(container)
	if err != nil {
		return 0, err
	}
	used := make(map[int]bool)
	for _, s := range snaps {
		if s.Date == dateKey {
			used[s.Serial] = true
		}
	}
	serial := 1
	for used[serial] {
		serial++
	}
	return serial, nil
}

// ListSnapshots returns the well-formed "<date>_<serial>" folders in dir,
// oldest first (date, then serial). Malformed names are skipped; a missing
// dir is treated as empty.
func ListSnapshots(dir string) ([]Snapshot, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}
	var snaps []Snapshot
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		s, ok := parseSnapshotName(e.Name())
		if !ok {
			continue
		}
		s.Path = filepath.Join(dir, e.Name())
		snaps = append(snaps, s)
	}
	sort.Slice(snaps, func(i, j int) bool {
		if !snaps[i].Day.Equal(snaps[j].Day) {
			return snaps[i].Day.Before(snaps[j].Day)
		}
		return snaps[i].Serial < snaps[j].Serial
	})
	return snaps, nil
}

// LatestSnapshot returns the most recent snapshot in dir by (date, serial),
// or nil when dir holds none.
func LatestSnapshot(dir string) (*Snapshot, error) {
	snaps, err := ListSnapshots(dir)
	if err != nil {
		return nil, err
	}
	if len(snaps) == 0 {
		return nil, nil
	}
	s := snaps[len(snaps)-1]
	return &s, nil
}

func parseSnapshotName(name string) (Snapshot, bool) {
	date, serialPart, ok := strings.Cut(name, "_")
	if !ok {
		return Snapshot{}, false
	}
	day, ok := ParseDateKey(date)
	if !ok {
		return Snapshot{}, false
	}
	serial, err := strconv.Atoi(serialPart)
	if err != nil || serial <= 0 {
		return Snapshot{}, false
	}
	return Snapshot{Name: name, Date: date, Serial: serial, Day: day}, true
}

// LatestEntry returns the most recent entry under notesDir by true calendar
// order of the date folder name, walking every year and month. Folders that
// do not parse as dates are skipped. Returns nil when the tree holds no
// entries.
func LatestEntry(notesDir string) (*Entry, error) {
	years, err := os.ReadDir(notesDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list %s: %w", notesDir, err)
	}
	var best *Entry
	for _, y := range years {
		if !y.IsDir() || !isDigits(y.Name(), 4) {
			continue
		}
		yearDir := filepath.Join(notesDir, y.Name())
		months, err := os.ReadDir(yearDir)
		if err != nil {
			return nil, fmt.Errorf("failed to list %s: %w", yearDir, err)
		}
		for _, m := range months {
			if !m.IsDir() || !isDigits(m.Name(), 2) {
				continue
			}
			monthDir := filepath.Join(yearDir, m.Name())
			dates, err := os.ReadDir(monthDir)
			if err != nil {
				return nil, fmt.Errorf("failed to list %s: %w", monthDir, err)
			}
			for _, d := range dates {
				if !d.IsDir() {
					continue
				}
				day, ok := ParseDateKey(d.Name())
				if !ok {
					continue
				}
				if best == nil || day.After(best.Day) {
					best = &Entry{
						Year:  y.Name(),
						Month: m.Name(),
						Date:  d.Name(),
						Day:   day,
						Path:  filepath.Join(monthDir, d.Name()),
					}
				}
			}
		}
	}
	return best, nil
}

// PruneEmptyDirs removes dir when nothing but empty directories remain under
// it, recursing bottom-up so nested empties collapse. A missing dir is a
// no-op.
func PruneEmptyDirs(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to stat %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to list %s: %w", dir, err)
	}
	for _, e := range entries {
		if e.IsDir() {
			if err := PruneEmptyDirs(filepath.Join(dir, e.Name())); err != nil {
				return err
			}
		}
	}
	rest, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to list %s: %w", dir, err)
	}
	if len(rest) == 0 {
		if err := os.Remove(dir); err != nil {
			return fmt.Errorf("failed to remove %s: %w", dir, err)
		}
	}
	return nil
}

func isDigits(s string, n int) bool {
	if len(s) != n {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
