package lifecycle

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ombrelin/carnet/internal/archive"
	"github.com/ombrelin/carnet/internal/index"
	"github.com/ombrelin/carnet/internal/journal"
	"github.com/ombrelin/carnet/internal/locale"
	"github.com/ombrelin/carnet/internal/note"
	"github.com/ombrelin/carnet/internal/ui"
)

func TestMain(m *testing.M) {
	ui.Init(true)
	os.Exit(m.Run())
}

const templateReadme = `# Note du jour

![couverture](./assets/cover.jpg)

### <date>, <temperature>, <meteo>, <lieu>

A remplir.
`

func newTestJournal(t *testing.T) *journal.Journal {
	t.Helper()
	root := t.TempDir()
	if err := journal.Init(root, false); err != nil {
		t.Fatal(err)
	}
	j, err := journal.Load(root)
	if err != nil {
		t.Fatal(err)
	}
	writeTemplate(t, j, templateReadme, map[string]string{"cover.jpg": "cover-bytes"})
	return j
}

func writeTemplate(t *testing.T, j *journal.Journal, readme string, assets map[string]string) {
	t.Helper()
	dir := j.TemplateDir()
	os.RemoveAll(filepath.Join(dir, "assets"))
	if err := os.WriteFile(filepath.Join(dir, "README.md"), []byte(readme), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(dir, "assets"), 0755); err != nil {
		t.Fatal(err)
	}
	for name, content := range assets {
		if err := os.WriteFile(filepath.Join(dir, "assets", name), []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
}

func writeWorkingNote(t *testing.T, j *journal.Journal, readme string, assets map[string]string) {
	t.Helper()
	area := j.NotingArea()
	if err := os.MkdirAll(filepath.Join(area, "assets"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(area, "README.md"), []byte(readme), 0644); err != nil {
		t.Fatal(err)
	}
	for name, content := range assets {
		if err := os.WriteFile(filepath.Join(area, "assets", name), []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestStartPopulatesFromTemplate(t *testing.T) {
	j := newTestJournal(t)

	res, err := Start(j)
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if res.DraftName != "" {
		t.Errorf("empty area should create no draft, got %s", res.DraftName)
	}

	data, err := os.ReadFile(filepath.Join(j.NotingArea(), "README.md"))
	if err != nil {
		t.Fatalf("expected working README: %v", err)
	}
	if string(data) != templateReadme {
		t.Error("working README should match the template")
	}
	if _, err := os.Stat(filepath.Join(j.NotingArea(), "assets", "cover.jpg")); err != nil {
		t.Error("referenced template asset should be copied")
	}

	drafts, _ := archive.ListSnapshots(j.DraftsDir())
	if len(drafts) != 0 {
		t.Errorf("expected zero drafts, got %d", len(drafts))
	}
}

func TestStartCopiesUnreferencedTemplateAssets(t *testing.T) {
	j := newTestJournal(t)
	writeTemplate(t, j, templateReadme, map[string]string{
		"cover.jpg": "cover-bytes",
		"logo.png":  "logo-bytes",
	})

	if _, err := Start(j); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	// The template is copied whole; only Finish prunes unreferenced assets.
	if _, err := os.Stat(filepath.Join(j.NotingArea(), "assets", "logo.png")); err != nil {
		t.Error("template asset not referenced by the README should still be copied")
	}
}

func TestStartSnapshotsActiveNote(t *testing.T) {
	j := newTestJournal(t)
	if _, err := Start(j); err != nil {
		t.Fatal(err)
	}
	edited := "# Ma journee\n\nDu contenu.\n"
	if err := os.WriteFile(filepath.Join(j.NotingArea(), "README.md"), []byte(edited), 0644); err != nil {
		t.Fatal(err)
	}

	res, err := Start(j)
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if res.DraftName == "" {
		t.Fatal("active area should be set aside as a draft")
	}

	data, err := os.ReadFile(filepath.Join(j.DraftsDir(), res.DraftName, "README.md"))
	if err != nil {
		t.Fatalf("draft README missing: %v", err)
	}
	if string(data) != edited {
		t.Error("draft should hold the edited note")
	}

	// Working area is back on the template.
	data, _ = os.ReadFile(filepath.Join(j.NotingArea(), "README.md"))
	if string(data) != templateReadme {
		t.Error("working README should be reset to the template")
	}
}

func TestFinishArchivesAndIndexes(t *testing.T) {
	j := newTestJournal(t)
	if _, err := Start(j); err != nil {
		t.Fatal(err)
	}
	noteDoc := "# Ma journee\n\n![photo](./assets/a.jpg)\n\n### 24 Aout, 21 degres, Ensoleille, Lyon\n\nBelle journee.\n"
	writeWorkingNote(t, j, noteDoc, map[string]string{"a.jpg": "aaa", "b.jpg": "bbb"})

	res, err := Finish(j)
	if err != nil {
		t.Fatalf("Finish failed: %v", err)
	}
	if res.Skipped {
		t.Fatalf("expected a real finish, skipped: %s", res.Reason)
	}

	// Archived entry holds the document and only the referenced asset.
	data, err := os.ReadFile(filepath.Join(res.EntryPath, "README.md"))
	if err != nil {
		t.Fatalf("archived README missing: %v", err)
	}
	if string(data) != noteDoc {
		t.Error("archived README should match the working note")
	}
	if _, err := os.Stat(filepath.Join(res.EntryPath, "assets", "a.jpg")); err != nil {
		t.Error("referenced asset should be archived")
	}
	if _, err := os.Stat(filepath.Join(res.EntryPath, "assets", "b.jpg")); err == nil {
		t.Error("unreferenced asset must not be archived")
	}
	if _, err := os.Stat(filepath.Join(res.EntryPath, "assets", "cover.jpg")); err == nil {
		t.Error("unreferenced template asset must not be archived")
	}

	// The link line lands in the right month section.
	day, ok := archive.ParseDateKey(res.DateKey)
	if !ok {
		t.Fatalf("bad date key %q", res.DateKey)
	}
	wantLink := index.FormatLink(day.Day(), locale.Default().Weekday(day.Weekday()),
		"21 degres", "Ensoleille", fmt.Sprintf("./%s/%s/", res.DateKey[4:6], res.DateKey))
	if res.Link != wantLink {
		t.Errorf("link = %q, want %q", res.Link, wantLink)
	}
	idx, err := os.ReadFile(j.YearIndexPath(res.Year))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(idx), "## "+res.MonthName+"\n") {
		t.Errorf("index should gain a %s section", res.MonthName)
	}
	if !strings.Contains(string(idx), wantLink) {
		t.Error("index should contain the new link")
	}

	// The backup holds the pre-edit index.
	backup, err := os.ReadFile(filepath.Join(j.BackupsDir(), res.BackupName, "README.md"))
	if err != nil {
		t.Fatalf("backup missing: %v", err)
	}
	if strings.Contains(string(backup), wantLink) {
		t.Error("backup must predate the insertion")
	}
	if !strings.Contains(string(backup), "# Notes "+res.Year) {
		t.Error("backup should hold the year index")
	}

	if res.Summary != "24 Aout, 21 degres, Ensoleille, Lyon" {
		t.Errorf("unexpected summary %q", res.Summary)
	}

	empty, _ := note.Empty(j.NotingArea())
	if !empty {
		t.Error("working area should be cleared after finish")
	}
}

func TestFinishTwiceIsGuarded(t *testing.T) {
	j := newTestJournal(t)
	if _, err := Start(j); err != nil {
		t.Fatal(err)
	}
	writeWorkingNote(t, j, "# Jour\n", nil)
	first, err := Finish(j)
	if err != nil || first.Skipped {
		t.Fatalf("first finish should succeed: %v %+v", err, first)
	}

	second, err := Finish(j)
	if err != nil {
		t.Fatalf("second finish errored: %v", err)
	}
	if !second.Skipped {
		t.Fatal("second finish must be a guarded no-op")
	}

	// Still exactly one archived entry.
	st, err := Report(j)
	if err != nil {
		t.Fatal(err)
	}
	if st.LatestEntry == nil || st.LatestEntry.Date != first.DateKey {
		t.Errorf("archive should hold the single entry %s", first.DateKey)
	}
	if st.Backups != 1 {
		t.Errorf("expected one backup, got %d", st.Backups)
	}
}

func TestFinishNoChangesIsGuarded(t *testing.T) {
	j := newTestJournal(t)
	if _, err := Start(j); err != nil {
		t.Fatal(err)
	}

	res, err := Finish(j)
	if err != nil {
		t.Fatalf("Finish errored: %v", err)
	}
	if !res.Skipped {
		t.Fatal("untouched template content must not be archived")
	}

	st, _ := Report(j)
	if st.LatestEntry != nil {
		t.Error("no entry should be created")
	}
	if st.Backups != 0 {
		t.Error("no backup should be created")
	}
	if st.State != Active {
		t.Error("working area must survive a guarded finish")
	}
}

func TestFinishSameDateRejected(t *testing.T) {
	j := newTestJournal(t)
	if _, err := Start(j); err != nil {
		t.Fatal(err)
	}
	writeWorkingNote(t, j, "# Premier\n", nil)
	if res, err := Finish(j); err != nil || res.Skipped {
		t.Fatalf("first finish should succeed: %v", err)
	}

	if _, err := Start(j); err != nil {
		t.Fatal(err)
	}
	writeWorkingNote(t, j, "# Deuxieme\n", nil)
	_, err := Finish(j)
	if err == nil {
		t.Fatal("same-date finish must be rejected")
	}
	if !strings.Contains(err.Error(), "already exists") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestFinishExtractionSentinels(t *testing.T) {
	j := newTestJournal(t)
	if _, err := Start(j); err != nil {
		t.Fatal(err)
	}
	writeWorkingNote(t, j, "# Sans legende\n\nPas d'image ici.\n", nil)

	res, err := Finish(j)
	if err != nil {
		t.Fatalf("Finish failed: %v", err)
	}
	if !strings.Contains(res.Link, "Inconnu, Inconnu") {
		t.Errorf("link should carry the sentinels, got %q", res.Link)
	}
	if res.Summary != "Information non disponible" {
		t.Errorf("unexpected summary %q", res.Summary)
	}
}

func TestRevertRestoresEverything(t *testing.T) {
	j := newTestJournal(t)
	if _, err := Start(j); err != nil {
		t.Fatal(err)
	}
	noteDoc := "# Ma journee\n\n![photo](./assets/a.jpg)\n\n### 24 Aout, 21 degres, Ensoleille, Lyon\n"
	writeWorkingNote(t, j, noteDoc, map[string]string{"a.jpg": "aaa"})
	fin, err := Finish(j)
	if err != nil || fin.Skipped {
		t.Fatalf("finish should succeed: %v", err)
	}

	res, err := Revert(j)
	if err != nil {
		t.Fatalf("Revert failed: %v", err)
	}
	if res.Skipped {
		t.Fatalf("expected a real revert, skipped: %s", res.Reason)
	}
	if res.DraftName != "" {
		t.Error("empty area should create no draft")
	}
	if !res.IndexRestored {
		t.Error("index should be restored from the backup")
	}

	// Working area holds the archived content again.
	data, err := os.ReadFile(filepath.Join(j.NotingArea(), "README.md"))
	if err != nil {
		t.Fatalf("restored README missing: %v", err)
	}
	if string(data) != noteDoc {
		t.Error("restored README should match the archived note")
	}
	if _, err := os.Stat(filepath.Join(j.NotingArea(), "assets", "a.jpg")); err != nil {
		t.Error("restored asset missing")
	}

	// Entry and its month folder are gone, the year index survives.
	if _, err := os.Stat(fin.EntryPath); err == nil {
		t.Error("entry should be deleted")
	}
	if _, err := os.Stat(filepath.Dir(fin.EntryPath)); err == nil {
		t.Error("empty month folder should be pruned")
	}
	idx, err := os.ReadFile(j.YearIndexPath(fin.Year))
	if err != nil {
		t.Fatalf("year index missing after revert: %v", err)
	}
	if strings.Contains(string(idx), fin.Link) {
		t.Error("restored index must not contain the reverted link")
	}

	backups, _ := archive.ListSnapshots(j.BackupsDir())
	if len(backups) != 0 {
		t.Errorf("backup should be deleted, got %d", len(backups))
	}
}

func TestRevertStaleEntryIsGuarded(t *testing.T) {
	j := newTestJournal(t)
	old := filepath.Join(j.NotesDir(), "2020", "01", "20200101")
	if err := os.MkdirAll(old, 0755); err != nil {
		t.Fatal(err)
	}
	os.WriteFile(filepath.Join(old, "README.md"), []byte("# Vieux\n"), 0644)

	res, err := Revert(j)
	if err != nil {
		t.Fatalf("Revert errored: %v", err)
	}
	if !res.Skipped {
		t.Fatal("stale entry must not be reverted")
	}
	if !strings.Contains(res.Reason, "20200101") {
		t.Errorf("reason should name the entry, got %q", res.Reason)
	}
	if _, err := os.Stat(old); err != nil {
		t.Error("stale entry must be left alone")
	}
	empty, _ := note.Empty(j.NotingArea())
	if !empty {
		t.Error("working area must stay empty")
	}
}

func TestRevertNothingToRevert(t *testing.T) {
	j := newTestJournal(t)
	res, err := Revert(j)
	if err != nil {
		t.Fatalf("Revert errored: %v", err)
	}
	if !res.Skipped {
		t.Fatal("expected a guarded no-op")
	}
}

func TestRevertSnapshotsActiveAreaBeforeGuards(t *testing.T) {
	j := newTestJournal(t)
	writeWorkingNote(t, j, "# En cours\n", nil)

	res, err := Revert(j)
	if err != nil {
		t.Fatalf("Revert errored: %v", err)
	}
	if !res.Skipped {
		t.Fatal("nothing to revert, expected a skip")
	}
	if res.DraftName == "" {
		t.Fatal("working note should be set aside before the guards")
	}
	if _, err := os.Stat(filepath.Join(j.DraftsDir(), res.DraftName, "README.md")); err != nil {
		t.Error("draft README missing")
	}
	empty, _ := note.Empty(j.NotingArea())
	if !empty {
		t.Error("working area should be cleared")
	}
}

func TestRevertWithoutBackupLeavesIndex(t *testing.T) {
	j := newTestJournal(t)
	now := time.Now()
	year := now.Format("2006")
	month := now.Format("01")
	key := archive.DateKey(now)
	entry := j.EntryDir(year, month, key)
	if err := os.MkdirAll(entry, 0755); err != nil {
		t.Fatal(err)
	}
	os.WriteFile(filepath.Join(entry, "README.md"), []byte("# Aujourd'hui\n"), 0644)
	before, err := os.ReadFile(j.YearIndexPath(year))
	if err != nil {
		t.Fatal(err)
	}

	res, err := Revert(j)
	if err != nil {
		t.Fatalf("Revert failed: %v", err)
	}
	if res.Skipped {
		t.Fatalf("fresh entry should revert, skipped: %s", res.Reason)
	}
	if res.IndexRestored {
		t.Error("no backup, index must not be marked restored")
	}
	after, _ := os.ReadFile(j.YearIndexPath(year))
	if string(after) != string(before) {
		t.Error("index must be untouched without a backup")
	}
	if _, err := os.Stat(entry); err == nil {
		t.Error("entry should still be deleted")
	}
}

func TestReport(t *testing.T) {
	j := newTestJournal(t)

	st, err := Report(j)
	if err != nil {
		t.Fatal(err)
	}
	if st.State != Empty || st.Changed || st.Drafts != 0 || st.Backups != 0 || st.LatestEntry != nil {
		t.Errorf("unexpected fresh status %+v", st)
	}

	if _, err := Start(j); err != nil {
		t.Fatal(err)
	}
	st, _ = Report(j)
	if st.State != Active {
		t.Error("expected active state after start")
	}
	if st.Changed {
		t.Error("untouched template content should not count as changed")
	}

	os.WriteFile(filepath.Join(j.NotingArea(), "README.md"), []byte("# Edite\n"), 0644)
	st, _ = Report(j)
	if !st.Changed {
		t.Error("edited note should count as changed")
	}
}
