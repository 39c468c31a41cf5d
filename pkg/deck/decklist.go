package deck

import (
	"bufio"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/matzehuels/proxysheet/pkg/errors"
)

var (
	// "1 Delver of Secrets (ISD) 51" and "1x Delver of Secrets (isd) 51"
	printingRE = regexp.MustCompile(`(?i)^(\d+)x?\s+(.+?)\s+\(([A-Z0-9]+)\)\s+(\S+)$`)
	// "4 Lightning Bolt", "4x Lightning Bolt" and "4X Lightning Bolt"
	plainRE = regexp.MustCompile(`(?i)^(\d+)x?\s+(.+)$`)
)

// sectionHeaders are deck builder headings that carry no cards.
var sectionHeaders = map[string]bool{
	"about":      true,
	"commander":  true,
	"companion":  true,
	"deck":       true,
	"mainboard":  true,
	"maybeboard": true,
	"sideboard":  true,
	"tokens":     true,
}

// ParseDecklist parses decklist text, one entry per line.
//
// Blank lines, "//" and "#" comments, and section headers ("Deck",
// "Sideboard:") are skipped, as are other lines that do not start with a
// quantity (MTGA's "Name ..." metadata, for instance). Foil ("*F*") and
// commander ("*CMDR*") markers are recorded and removed from the name.
//
// Returns an INVALID_DECK error naming the line when a card line is
// malformed, or when the text has content but no cards at all.
func ParseDecklist(text string) ([]Entry, error) {
	var (
		entries []Entry
		content bool
		lineNo  int
	)
	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "//") || strings.HasPrefix(line, "#") {
			continue
		}
		content = true
		if sectionHeaders[strings.ToLower(strings.TrimSuffix(line, ":"))] {
			continue
		}

		e, ok, err := parseLine(line)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidDeck, err, "line %d", lineNo)
		}
		if ok {
			entries = append(entries, e)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidDeck, err, "read decklist")
	}
	if content && len(entries) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidDeck, "no cards found")
	}
	return entries, nil
}

func parseLine(line string) (Entry, bool, error) {
	var e Entry
	line, e.Foil = cutMarker(line, "*F*")
	line, e.Commander = cutMarker(line, "*CMDR*")

	var qty string
	if m := printingRE.FindStringSubmatch(line); m != nil {
		qty, e.Name, e.Set, e.Number = m[1], m[2], strings.ToUpper(m[3]), m[4]
	} else if m := plainRE.FindStringSubmatch(line); m != nil {
		qty, e.Name = m[1], m[2]
	} else {
		return e, false, nil
	}
	e.Name = strings.TrimSpace(e.Name)

	n, err := strconv.Atoi(qty)
	if err != nil {
		return e, false, fmt.Errorf("quantity %q: %w", qty, err)
	}
	e.Quantity = n
	if err := e.Validate(); err != nil {
		return e, false, err
	}
	return e, true, nil
}

// cutMarker removes every occurrence of marker and reports whether one was
// present.
func cutMarker(line, marker string) (string, bool) {
	if !strings.Contains(line, marker) {
		return line, false
	}
	return strings.Join(strings.Fields(strings.ReplaceAll(line, marker, " ")), " "), true
}

// FormatEntry renders an entry back into decklist syntax.
func FormatEntry(e Entry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d %s", e.Quantity, e.Name)
	if e.Set != "" && e.Number != "" {
		fmt.Fprintf(&b, " (%s) %s", strings.ToUpper(e.Set), e.Number)
	}
	if e.Foil {
		b.WriteString(" *F*")
	}
	if e.Commander {
		b.WriteString(" *CMDR*")
	}
	return b.String()
}
