package index

import (
	"fmt"
	"regexp"
	"strings"
)

// Sentinel separates the month sections from the trailing boilerplate.
const Sentinel = "<br/>"

const disclaimerHeading = "### Images Copyrights Disclaimer"

// Document is a parsed year index: preamble lines, ordered month sections,
// and a trailer beginning at the sentinel (or at the boilerplate heading when
// no sentinel exists). Untouched regions serialize back byte-for-byte.
type Document struct {
	Preamble []string
	Sections []Section
	Trailer  []string

	noFinalNewline bool
}

// Section is one month block: the raw heading text after "## " and the body
// lines up to the next boundary.
type Section struct {
	Heading string
	Body    []string
}

// Month returns the section's month name with surrounding space trimmed.
func (s *Section) Month() string {
	return strings.TrimSpace(s.Heading)
}

// Links returns the section's link lines, trimmed.
func (s *Section) Links() []string {
	var links []string
	for _, line := range s.Body {
		if isLinkLine(line) {
			links = append(links, strings.TrimSpace(line))
		}
	}
	return links
}

// Parse builds a Document from raw index content. Any text parses; there is
// no error case.
func Parse(raw []byte) *Document {
	content := string(raw)
	doc := &Document{
		noFinalNewline: content != "" && !strings.HasSuffix(content, "\n"),
	}
	var cur *Section
	inTrailer := false
	for _, line := range splitLines(content) {
		switch {
		case inTrailer:
			doc.Trailer = append(doc.Trailer, line)
		case isSentinel(line) || isDisclaimer(line):
			inTrailer = true
			doc.Trailer = append(doc.Trailer, line)
		case isMonthHeader(line):
			doc.Sections = append(doc.Sections, Section{Heading: line[len("## "):]})
			cur = &doc.Sections[len(doc.Sections)-1]
		case cur != nil:
			cur.Body = append(cur.Body, line)
		default:
			doc.Preamble = append(doc.Preamble, line)
		}
	}
	return doc
}

// Bytes serializes the document back to index content.
func (d *Document) Bytes() []byte {
	var b strings.Builder
	for _, line := range d.Preamble {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	for i := range d.Sections {
		b.WriteString("## ")
		b.WriteString(d.Sections[i].Heading)
		b.WriteByte('\n')
		for _, line := range d.Sections[i].Body {
			b.WriteString(line)
			b.WriteByte('\n')
		}
	}
	for _, line := range d.Trailer {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	out := b.String()
	if d.noFinalNewline {
		out = strings.TrimSuffix(out, "\n")
	}
	return []byte(out)
}

// Section returns the first section for month, or nil.
func (d *Document) Section(month string) *Section {
	for i := range d.Sections {
		if d.Sections[i].Month() == month {
			return &d.Sections[i]
		}
	}
	return nil
}

// Links returns every link line in the document, in order.
func (d *Document) Links() []string {
	var links []string
	for i := range d.Sections {
		links = append(links, d.Sections[i].Links()...)
	}
	return links
}

// FormatLink renders the fixed link-line grammar:
// [_<day>, <weekday>, <temperature>, <weather>_](<target>).
func FormatLink(day int, weekday, temperature, weather, target string) string {
	return fmt.Sprintf("[_%d, %s, %s, %s_](%s)", day, weekday, temperature, weather, target)
}

// Insert adds a link under monthName as the last entry of that section,
// preceded by a blank separator. A missing section is created immediately
// before the sentinel, with the link as its sole content; when the document
// has no sentinel one is added above the boilerplate, and a document with no
// trailer at all grows the section at its end.
func Insert(doc *Document, monthName, link string) {
	if sec := doc.Section(monthName); sec != nil {
		insertIntoSection(sec, link)
		return
	}

	switch {
	case len(doc.Trailer) == 0:
		if doc.noFinalNewline {
			doc.noFinalNewline = false
		} else {
			appendTrailingBlank(doc)
		}
		doc.Sections = append(doc.Sections, Section{Heading: monthName, Body: []string{"", link}})
	case isSentinel(doc.Trailer[0]):
		doc.Sections = append(doc.Sections, Section{Heading: monthName, Body: []string{"", link, ""}})
	default:
		doc.Sections = append(doc.Sections, Section{Heading: monthName, Body: []string{"", link, ""}})
		doc.Trailer = append([]string{Sentinel, ""}, doc.Trailer...)
	}
}

// Remove deletes the link line whose target holds the "./<month>/<date>/"
// path for dateFolder, along with its preceding blank separator unless the
// line above the separator is a section header. The first section left with
// no link lines is then deleted in full. Reports whether a link was found.
func Remove(doc *Document, dateFolder string) bool {
	pattern := regexp.MustCompile(`\[_.*?\]\(\./\d{2}/` + regexp.QuoteMeta(dateFolder) + `/\)`)
	removed := false
	for i := range doc.Sections {
		sec := &doc.Sections[i]
		idx := -1
		for j, line := range sec.Body {
			if pattern.MatchString(line) {
				idx = j
				break
			}
		}
		if idx < 0 {
			continue
		}
		start := idx
		if idx >= 2 && isBlank(sec.Body[idx-1]) && !strings.HasPrefix(strings.TrimSpace(sec.Body[idx-2]), "##") {
			start = idx - 1
		}
		sec.Body = append(sec.Body[:start], sec.Body[idx+1:]...)
		removed = true
		break
	}
	if !removed {
		return false
	}
	pruneEmptySection(doc)
	return true
}

func insertIntoSection(sec *Section, link string) {
	last := -1
	for i, line := range sec.Body {
		if isLinkLine(line) {
			last = i
		}
	}
	if last < 0 {
		sec.Body = append([]string{"", link}, sec.Body...)
		return
	}
	rest := append([]string{"", link}, sec.Body[last+1:]...)
	sec.Body = append(sec.Body[:last+1], rest...)
}

// pruneEmptySection deletes the first section whose body holds no link line.
// One per call: the lifecycle removes one entry per revert, and repeated
// calls converge.
func pruneEmptySection(doc *Document) {
	for i := range doc.Sections {
		if len(doc.Sections[i].Links()) == 0 {
			doc.Sections = append(doc.Sections[:i], doc.Sections[i+1:]...)
			return
		}
	}
}

func appendTrailingBlank(doc *Document) {
	if n := len(doc.Sections); n > 0 {
		doc.Sections[n-1].Body = append(doc.Sections[n-1].Body, "")
		return
	}
	doc.Preamble = append(doc.Preamble, "")
}

// Scaffold returns a fresh year index skeleton ready for month sections.
func Scaffold(year string) []byte {
	var b strings.Builder
	b.WriteString("# Notes " + year + "\n")
	b.WriteString("\n")
	b.WriteString("Journal quotidien de l'annee " + year + ".\n")
	b.WriteString("\n")
	b.WriteString(Sentinel + "\n")
	b.WriteString("\n")
	b.WriteString(disclaimerHeading + "\n")
	b.WriteString("\n")
	b.WriteString("Les images de ce journal appartiennent a leurs auteurs respectifs.\n")
	return []byte(b.String())
}

func splitLines(content string) []string {
	if content == "" {
		return nil
	}
	lines := strings.Split(content, "\n")
	if lines[len(lines)-1] == "" && strings.HasSuffix(content, "\n") {
		lines = lines[:len(lines)-1]
	}
	return lines
}

func isMonthHeader(line string) bool {
	return strings.HasPrefix(line, "## ")
}

func isSentinel(line string) bool {
	return strings.HasPrefix(strings.TrimSpace(line), Sentinel)
}

func isDisclaimer(line string) bool {
	return strings.HasPrefix(strings.TrimSpace(line), disclaimerHeading)
}

func isLinkLine(line string) bool {
	return strings.HasPrefix(strings.TrimSpace(line), "[_")
}

func isBlank(line string) bool {
	return strings.TrimSpace(line) == ""
}
