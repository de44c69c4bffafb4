// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package cite renders stored records as citations: BibTeX entries for
// LaTeX documents and CSL-YAML for Pandoc and reference managers.
package cite

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pdiddy/bibindex/pkg/types"
)

// KeyPrefix namespaces citation keys derived from DBLP keys.
const KeyPrefix = "DBLP:"

// CiteKey returns the citation key for a DBLP key
// (e.g. "conf/nips/SmithJ23" becomes "DBLP:conf/nips/SmithJ23").
func CiteKey(dblpKey string) string {
	return KeyPrefix + dblpKey
}

// EntryType returns the BibTeX entry type for a record kind.
func EntryType(kind types.RecordKind) string {
	if kind == types.KindArticle {
		return "article"
	}
	return "inproceedings"
}

// BibTeX renders rec as a BibTeX entry. Fields appear in a fixed order and
// empty fields are omitted, so equal records always render identically.
func BibTeX(rec types.Record) string {
	entryType := EntryType(rec.Kind)

	var b strings.Builder
	fmt.Fprintf(&b, "@%s{%s,\n", entryType, CiteKey(rec.Key))

	if len(rec.Authors) > 0 {
		writeField(&b, "author", strings.Join(rec.Authors, " and "))
	}
	writeField(&b, "title", rec.Title)
	if rec.Venue != "" {
		venueField := "booktitle"
		if entryType == "article" {
			venueField = "journal"
		}
		writeField(&b, venueField, rec.Venue)
	}
	if rec.Year != nil {
		writeField(&b, "year", strconv.Itoa(*rec.Year))
	}
	if rec.URL != "" {
		writeField(&b, "url", rec.URL)
	}

	b.WriteString("}")
	return b.String()
}

func writeField(b *strings.Builder, name, value string) {
	fmt.Fprintf(b, "  %-9s = {%s},\n", name, value)
}
