package note

import (
	"os"
	"path/filepath"
	"slices"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("mkdir failed: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write failed: %v", err)
	}
}

func TestOfInterest(t *testing.T) {
	for _, name := range []string{"README.md", "readme.md", "ReadMe.MD", "assets", "Assets", "ASSETS"} {
		if !OfInterest(name) {
			t.Errorf("expected %q to be of interest", name)
		}
	}
	for _, name := range []string{"scratch.txt", ".DS_Store", "README.md.bak", "assets2", "notes"} {
		if OfInterest(name) {
			t.Errorf("expected %q to be ignored", name)
		}
	}
}

func TestListInterest(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "README.md"), "# note\n")
	writeFile(t, filepath.Join(dir, "assets", "a.jpg"), "jpg")
	writeFile(t, filepath.Join(dir, "scratch.txt"), "tmp")

	items, err := ListInterest(dir)
	if err != nil {
		t.Fatalf("ListInterest failed: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if !items[0].IsDocument() || items[0].IsDir {
		t.Errorf("expected document first, got %+v", items[0])
	}
	if !items[1].IsAssets() || !items[1].IsDir {
		t.Errorf("expected assets folder, got %+v", items[1])
	}
}

func TestListInterestMissingDir(t *testing.T) {
	items, err := ListInterest(filepath.Join(t.TempDir(), "nope"))
	if err != nil {
		t.Fatalf("missing dir should not error: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("expected no items, got %d", len(items))
	}
}

func TestEmpty(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "scratch.txt"), "tmp")

	empty, err := Empty(dir)
	if err != nil {
		t.Fatalf("Empty failed: %v", err)
	}
	if !empty {
		t.Error("stray files alone should leave the area empty")
	}

	writeFile(t, filepath.Join(dir, "readme.md"), "# note\n")
	empty, err = Empty(dir)
	if err != nil {
		t.Fatalf("Empty failed: %v", err)
	}
	if empty {
		t.Error("expected area with a document to be non-empty")
	}
}

func TestReferencedAssets(t *testing.T) {
	doc := []byte(`# Note

![cover](./assets/photo1.jpg)

Un lien simple [ici](./assets/linked.pdf) ne compte pas.

![again](./assets/photo1.jpg)
![autre](assets/photo3.jpg)
`)
	refs := ReferencedAssets(doc)
	if len(refs) != 1 {
		t.Fatalf("expected 1 referenced asset, got %d: %v", len(refs), refs)
	}
	if _, ok := refs["photo1.jpg"]; !ok {
		t.Error("expected photo1.jpg to be referenced")
	}
}

func TestCopyInterestFiltered(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	writeFile(t, filepath.Join(src, "README.md"), "![a](./assets/a.jpg)\n")
	writeFile(t, filepath.Join(src, "assets", "a.jpg"), "aaa")
	writeFile(t, filepath.Join(src, "assets", "b.jpg"), "bbb")
	writeFile(t, filepath.Join(src, "stray.txt"), "tmp")

	report, err := CopyInterest(src, dst, true)
	if err != nil {
		t.Fatalf("CopyInterest failed: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dst, "README.md")); err != nil {
		t.Errorf("expected document copied: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dst, "assets", "a.jpg")); err != nil {
		t.Errorf("expected referenced asset copied: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dst, "assets", "b.jpg")); !os.IsNotExist(err) {
		t.Error("unreferenced asset should not be copied")
	}
	if _, err := os.Stat(filepath.Join(dst, "stray.txt")); !os.IsNotExist(err) {
		t.Error("stray file should not be copied")
	}

	if !slices.Contains(report.Copied, "README.md") || !slices.Contains(report.Copied, filepath.Join("assets", "a.jpg")) {
		t.Errorf("unexpected copied list: %v", report.Copied)
	}
	if !slices.Contains(report.Skipped, filepath.Join("assets", "b.jpg")) {
		t.Errorf("unexpected skipped list: %v", report.Skipped)
	}
}

func TestCopyInterestPlain(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	writeFile(t, filepath.Join(src, "README.md"), "pas d'embed\n")
	writeFile(t, filepath.Join(src, "assets", "a.jpg"), "aaa")
	writeFile(t, filepath.Join(src, "assets", "raw", "b.jpg"), "bbb")

	if _, err := CopyInterest(src, dst, false); err != nil {
		t.Fatalf("CopyInterest failed: %v", err)
	}
	for _, rel := range []string{"README.md", "assets/a.jpg", "assets/raw/b.jpg"} {
		if _, err := os.Stat(filepath.Join(dst, filepath.FromSlash(rel))); err != nil {
			t.Errorf("expected %s copied: %v", rel, err)
		}
	}
}

func TestCopyInterestFilteredNoDocument(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	writeFile(t, filepath.Join(src, "assets", "a.jpg"), "aaa")

	report, err := CopyInterest(src, dst, true)
	if err != nil {
		t.Fatalf("CopyInterest failed: %v", err)
	}
	if len(report.Copied) != 0 {
		t.Errorf("without a document no assets are referenced, copied: %v", report.Copied)
	}
	if _, err := os.Stat(filepath.Join(dst, "assets")); err != nil {
		t.Errorf("asset folder itself should still be created: %v", err)
	}
}

func TestClearInterest(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "README.md"), "# note\n")
	writeFile(t, filepath.Join(dir, "assets", "a.jpg"), "aaa")
	writeFile(t, filepath.Join(dir, "keep.txt"), "keep")

	removed, err := ClearInterest(dir)
	if err != nil {
		t.Fatalf("ClearInterest failed: %v", err)
	}
	if len(removed) != 2 {
		t.Errorf("expected 2 removals, got %v", removed)
	}
	if _, err := os.Stat(filepath.Join(dir, "keep.txt")); err != nil {
		t.Errorf("stray file should survive clearing: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "README.md")); !os.IsNotExist(err) {
		t.Error("document should be removed")
	}
	if _, err := os.Stat(filepath.Join(dir, "assets")); !os.IsNotExist(err) {
		t.Error("asset folder should be removed")
	}
}

func TestDiffersFrom(t *testing.T) {
	work := t.TempDir()
	tmpl := t.TempDir()
	writeFile(t, filepath.Join(tmpl, "README.md"), "# modele\n")
	writeFile(t, filepath.Join(tmpl, "assets", "cover.jpg"), "img")
	writeFile(t, filepath.Join(work, "README.md"), "# modele\n")
	writeFile(t, filepath.Join(work, "assets", "cover.jpg"), "img")

	differs, err := DiffersFrom(work, tmpl)
	if err != nil {
		t.Fatalf("DiffersFrom failed: %v", err)
	}
	if differs {
		t.Error("identical content should not differ")
	}

	writeFile(t, filepath.Join(work, "README.md"), "# modele\n\nDu texte en plus.\n")
	differs, err = DiffersFrom(work, tmpl)
	if err != nil {
		t.Fatalf("DiffersFrom failed: %v", err)
	}
	if !differs {
		t.Error("edited document should differ")
	}
}

func TestDiffersFromSameLengthContent(t *testing.T) {
	work := t.TempDir()
	tmpl := t.TempDir()
	writeFile(t, filepath.Join(tmpl, "README.md"), "# modele A\n")
	writeFile(t, filepath.Join(work, "README.md"), "# modele B\n")

	differs, err := DiffersFrom(work, tmpl)
	if err != nil {
		t.Fatalf("DiffersFrom failed: %v", err)
	}
	if !differs {
		t.Error("documents of equal length must still be compared byte for byte")
	}
}

func TestDiffersFromPresenceSet(t *testing.T) {
	work := t.TempDir()
	tmpl := t.TempDir()
	writeFile(t, filepath.Join(tmpl, "README.md"), "# modele\n")
	writeFile(t, filepath.Join(work, "README.md"), "# modele\n")
	writeFile(t, filepath.Join(work, "assets", "new.jpg"), "img")

	differs, err := DiffersFrom(work, tmpl)
	if err != nil {
		t.Fatalf("DiffersFrom failed: %v", err)
	}
	if !differs {
		t.Error("an extra interest item should count as changed")
	}
}

func TestDiffersFromIgnoresStrayAndAssetContents(t *testing.T) {
	work := t.TempDir()
	tmpl := t.TempDir()
	writeFile(t, filepath.Join(tmpl, "README.md"), "# modele\n")
	writeFile(t, filepath.Join(tmpl, "assets", "cover.jpg"), "img")
	writeFile(t, filepath.Join(work, "README.md"), "# modele\n")
	writeFile(t, filepath.Join(work, "assets", "other.jpg"), "different set")
	writeFile(t, filepath.Join(work, "scratch.txt"), "tmp")

	differs, err := DiffersFrom(work, tmpl)
	if err != nil {
		t.Fatalf("DiffersFrom failed: %v", err)
	}
	if differs {
		t.Error("asset folder contents and stray files do not participate in the comparison")
	}
}
