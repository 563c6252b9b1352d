package note

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// Canonical note-of-interest names. On-disk matching is case-insensitive.
const (
	DocumentName  = "README.md"
	AssetsDirName = "assets"
)

// Item is a note-of-interest entry found in a directory listing.
type Item struct {
	Name  string // on-disk name, original casing
	Path  string
	IsDir bool
}

// IsDocument reports whether the item is the note document.
func (it Item) IsDocument() bool {
	return strings.EqualFold(it.Name, DocumentName)
}

// IsAssets reports whether the item is the asset folder.
func (it Item) IsAssets() bool {
	return strings.EqualFold(it.Name, AssetsDirName)
}

// OfInterest reports whether name belongs to the note-of-interest set.
// Every operation that lists, copies, compares, or clears note content
// applies this predicate, so stray files are never touched.
func OfInterest(name string) bool {
	return strings.EqualFold(name, DocumentName) || strings.EqualFold(name, AssetsDirName)
}

// ListInterest returns the note-of-interest items in dir. A missing
// directory is treated as empty.
func ListInterest(dir string) ([]Item, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}
	var items []Item
	for _, e := range entries {
		if !OfInterest(e.Name()) {
			continue
		}
		items = append(items, Item{
			Name:  e.Name(),
			Path:  filepath.Join(dir, e.Name()),
			IsDir: e.IsDir(),
		})
	}
	return items, nil
}

// Empty reports whether dir holds no note-of-interest content.
func Empty(dir string) (bool, error) {
	items, err := ListInterest(dir)
	if err != nil {
		return false, err
	}
	return len(items) == 0, nil
}

// DocumentPath returns the path of the note document in dir, or "" when the
// document is absent.
func DocumentPath(dir string) (string, error) {
	items, err := ListInterest(dir)
	if err != nil {
		return "", err
	}
	for _, it := range items {
		if it.IsDocument() && !it.IsDir {
			return it.Path, nil
		}
	}
	return "", nil
}

// DiffersFrom reports whether dir's note-of-interest content differs from
// refDir's. A differing presence set counts as changed on its own; documents
// are compared byte-for-byte; asset folders count by presence only.
func DiffersFrom(dir, refDir string) (bool, error) {
	items, err := ListInterest(dir)
	if err != nil {
		return false, err
	}
	refItems, err := ListInterest(refDir)
	if err != nil {
		return false, err
	}

	refNames := make(map[string]struct{}, len(refItems))
	for _, it := range refItems {
		refNames[it.Name] = struct{}{}
	}
	if len(items) != len(refItems) {
		return true, nil
	}
	for _, it := range items {
		if _, ok := refNames[it.Name]; !ok {
			return true, nil
		}
	}

	for _, it := range items {
		refPath := filepath.Join(refDir, it.Name)
		info, err := os.Stat(refPath)
		if err != nil {
			return false, fmt.Errorf("failed to stat %s: %w", refPath, err)
		}
		if it.IsDir != info.IsDir() {
			return true, nil
		}
		if it.IsDir {
			continue
		}
		same, err := filesEqual(it.Path, refPath)
		if err != nil {
			return false, err
		}
		if !same {
			return true, nil
		}
	}
	return false, nil
}

var assetEmbedPattern = regexp.MustCompile(`!\[.*?\]\(\./assets/([^)]+)\)`)

// ReferencedAssets returns the asset filenames referenced from the document
// through image embeds of the literal form ![...](./assets/<name>). Other
// relative spellings and non-image links are not recognized.
func ReferencedAssets(doc []byte) map[string]struct{} {
	refs := make(map[string]struct{})
	for _, m := range assetEmbedPattern.FindAllSubmatch(doc, -1) {
		refs[string(m[1])] = struct{}{}
	}
	return refs
}

// CopyReport lists what CopyInterest moved and what it left behind.
type CopyReport struct {
	Copied  []string // paths relative to the source directory
	Skipped []string // unreferenced assets excluded from the copy
}

// CopyInterest copies the note-of-interest set from src into dst. With
// filterAssets set, the asset folder is copied file by file keeping only
// assets referenced from the document; otherwise items are copied in full.
func CopyInterest(src, dst string, filterAssets bool) (*CopyReport, error) {
	items, err := ListInterest(src)
	if err != nil {
		return nil, err
	}
	report := &CopyReport{}

	var refs map[string]struct{}
	if filterAssets {
		refs = make(map[string]struct{})
		docPath, err := DocumentPath(src)
		if err != nil {
			return nil, err
		}
		if docPath != "" {
			doc, err := os.ReadFile(docPath)
			if err != nil {
				return nil, fmt.Errorf("failed to read %s: %w", docPath, err)
			}
			refs = ReferencedAssets(doc)
		}
	}

	for _, it := range items {
		dest := filepath.Join(dst, it.Name)
		switch {
		case filterAssets && it.IsAssets() && it.IsDir:
			if err := copyAssetsFiltered(it.Path, dest, it.Name, refs, report); err != nil {
				return nil, err
			}
		case it.IsDir:
			if err := copyTree(it.Path, dest); err != nil {
				return nil, err
			}
			report.Copied = append(report.Copied, it.Name)
		default:
			if err := copyFile(it.Path, dest); err != nil {
				return nil, err
			}
			report.Copied = append(report.Copied, it.Name)
		}
	}
	return report, nil
}

// ClearInterest removes the note-of-interest items from dir, leaving other
// files alone. Returns the names removed.
func ClearInterest(dir string) ([]string, error) {
	items, err := ListInterest(dir)
	if err != nil {
		return nil, err
	}
	var removed []string
	for _, it := range items {
		if err := os.RemoveAll(it.Path); err != nil {
			return removed, fmt.Errorf("failed to remove %s: %w", it.Path, err)
		}
		removed = append(removed, it.Name)
	}
	return removed, nil
}

func copyAssetsFiltered(srcDir, dstDir, name string, refs map[string]struct{}, report *CopyReport) error {
	if err := os.MkdirAll(dstDir, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dstDir, err)
	}
	entries, err := os.ReadDir(srcDir)
	if err != nil {
		return fmt.Errorf("failed to list %s: %w", srcDir, err)
	}
	for _, e := range entries {
		rel := filepath.Join(name, e.Name())
		if _, ok := refs[e.Name()]; !ok || e.IsDir() {
			report.Skipped = append(report.Skipped, rel)
			continue
		}
		if err := copyFile(filepath.Join(srcDir, e.Name()), filepath.Join(dstDir, e.Name())); err != nil {
			return err
		}
		report.Copied = append(report.Copied, rel)
	}
	return nil
}

func copyTree(src, dst string) error {
	entries, err := os.ReadDir(src)
	if err != nil {
		return fmt.Errorf("failed to list %s: %w", src, err)
	}
	if err := os.MkdirAll(dst, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dst, err)
	}
	for _, e := range entries {
		s := filepath.Join(src, e.Name())
		d := filepath.Join(dst, e.Name())
		if e.IsDir() {
			if err := copyTree(s, d); err != nil {
				return err
			}
			continue
		}
		if err := copyFile(s, d); err != nil {
			return err
		}
	}
	return nil
}

func filesEqual(a, b string) (bool, error) {
	dataA, err := os.ReadFile(a)
	if err != nil {
		return false, fmt.Errorf("failed to read %s: %w", a, err)
	}
	dataB, err := os.ReadFile(b)
	if err != nil {
		return false, fmt.Errorf("failed to read %s: %w", b, err)
	}
	return bytes.Equal(dataA, dataB), nil
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", src, err)
	}
	if err := os.WriteFile(dst, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", dst, err)
	}
	return nil
}
