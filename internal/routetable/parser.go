package routetable

import (
	"iter"
	"net/netip"
	"strconv"
	"strings"
)

// Scan yields every line of raw whose trimmed text starts with dest.
// Sequences re-scan raw each time they are ranged over.
func Scan(raw string, dest netip.Addr) iter.Seq[Row] {
	prefix := dest.String()
	return func(yield func(Row) bool) {
		for line := range strings.Lines(raw) {
			line = strings.TrimSpace(line)
			if !strings.HasPrefix(line, prefix) {
				continue
			}
			tokens := tokenize(line)
			row := Row{
				Line:   line,
				Tokens: tokens,
				Exact:  len(tokens) > 0 && tokens[colDestination] == prefix,
			}
			if !yield(row) {
				return
			}
		}
	}
}

// Parse yields the well-formed entries for dest in source order. Rows for
// other destinations, short rows (on-link, persistent route listings) and
// rows with unparsable columns are skipped.
func Parse(raw string, dest netip.Addr) iter.Seq[Entry] {
	return func(yield func(Entry) bool) {
		for row := range Scan(raw, dest) {
			e, ok := entryFromRow(row, dest)
			if !ok {
				continue
			}
			if !yield(e) {
				return
			}
		}
	}
}

// Count returns the number of rows Scan yields.
func Count(raw string, dest netip.Addr) int {
	n := 0
	for range Scan(raw, dest) {
		n++
	}
	return n
}

func entryFromRow(row Row, dest netip.Addr) (Entry, bool) {
	if !row.Exact || len(row.Tokens) < minColumns {
		return Entry{}, false
	}
	mask, err := netip.ParseAddr(row.Tokens[colMask])
	if err != nil {
		return Entry{}, false
	}
	gw, err := netip.ParseAddr(row.Tokens[colGateway])
	if err != nil {
		return Entry{}, false
	}
	metric, err := strconv.Atoi(row.Tokens[colMetric])
	if err != nil {
		return Entry{}, false
	}
	return Entry{Destination: dest, Mask: mask, Gateway: gw, Metric: metric}, true
}

// tokenize splits a line into maximal runs of digits and dots.
func tokenize(line string) []string {
	return strings.FieldsFunc(line, func(r rune) bool {
		return (r < '0' || r > '9') && r != '.'
	})
}
