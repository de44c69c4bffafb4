// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package extract streams bibliographic records out of the DBLP XML dump.
// The dump is decoded token by token so that only the record currently
// being read is held in memory.
package extract

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/ianaindex"

	"github.com/pdiddy/bibindex/pkg/types"
)

// recordDepth is the nesting depth of record elements: <dblp> is depth 1.
const recordDepth = 2

// unresolvedEntity matches a named reference the decoder left in place
// because the DTD does not declare it.
var unresolvedEntity = regexp.MustCompile(`&[A-Za-z_][A-Za-z0-9._-]*;`)

// Stats counts what a Reader has seen so far.
type Stats struct {
	// Yielded is the number of records returned by Next.
	Yielded int `json:"yielded" yaml:"yielded"`

	// Skipped is the number of records dropped with an ExtractionError.
	Skipped int `json:"skipped" yaml:"skipped"`

	// Untitled is the number of records dropped for an empty title.
	Untitled int `json:"untitled" yaml:"untitled"`
}

// Reader yields Records from a DBLP XML stream. It is single-pass and not
// safe for concurrent use.
type Reader struct {
	dec   *xml.Decoder
	depth int
	stats Stats

	// OnSkip, if set, is called for every record dropped with an
	// ExtractionError.
	OnSkip func(*ExtractionError)
}

// NewReader returns a Reader over the uncompressed XML in r. Named
// character references are resolved with entities, normally the result of
// LoadEntities.
func NewReader(entities map[string]string, r io.Reader) *Reader {
	dec := xml.NewDecoder(r)
	// Non-strict mode leaves unknown entities in the text instead of failing
	// the whole stream; Next turns them into per-record errors.
	dec.Strict = false
	dec.Entity = entities
	dec.CharsetReader = charsetReader
	return &Reader{dec: dec}
}

// Stats returns the counts accumulated so far.
func (r *Reader) Stats() Stats {
	return r.stats
}

// Next returns the next record in document order. It returns io.EOF when
// the corpus is exhausted. Records that fail extraction are skipped; only
// errors that leave the decoder unusable are returned.
func (r *Reader) Next() (types.Record, error) {
	for {
		tok, err := r.dec.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return types.Record{}, io.EOF
			}
			return types.Record{}, fmt.Errorf("reading corpus: %w", err)
		}

		switch t := tok.(type) {
		case xml.EndElement:
			r.depth--
		case xml.StartElement:
			r.depth++
			if r.depth != recordDepth {
				continue
			}

			kind := types.RecordKind(t.Name.Local)
			if !kind.IsValid() {
				if err := r.dec.Skip(); err != nil {
					return types.Record{}, fmt.Errorf("skipping <%s>: %w", t.Name.Local, err)
				}
				r.depth--
				continue
			}

			var el element
			if err := r.dec.DecodeElement(&el, &t); err != nil {
				return types.Record{}, fmt.Errorf("decoding <%s>: %w", t.Name.Local, err)
			}
			r.depth--

			rec, err := el.record(kind)
			if err != nil {
				var exErr *ExtractionError
				if errors.As(err, &exErr) {
					r.stats.Skipped++
					if r.OnSkip != nil {
						r.OnSkip(exErr)
					}
					continue
				}
				return types.Record{}, err
			}
			if rec.Title == "" {
				r.stats.Untitled++
				continue
			}
			r.stats.Yielded++
			return rec, nil
		}
	}
}

// element is the decoded child vocabulary of <article> and <inproceedings>.
type element struct {
	Key       string `xml:"key,attr"`
	Title     text   `xml:"title"`
	Journal   text   `xml:"journal"`
	Booktitle text   `xml:"booktitle"`
	Year      text   `xml:"year"`
	EE        []text `xml:"ee"`
	Authors   []text `xml:"author"`
}

func (el *element) record(kind types.RecordKind) (types.Record, error) {
	key := strings.TrimSpace(el.Key)
	if key == "" {
		return types.Record{}, &ExtractionError{Reason: "missing key attribute"}
	}

	rec := types.Record{
		Key:   key,
		Kind:  kind,
		Title: cleanTitle(string(el.Title)),
	}

	if kind == types.KindArticle {
		rec.Venue = strings.TrimSpace(string(el.Journal))
	} else {
		rec.Venue = strings.TrimSpace(string(el.Booktitle))
	}

	if y, err := strconv.Atoi(strings.TrimSpace(string(el.Year))); err == nil {
		rec.Year = &y
	}

	if len(el.EE) > 0 {
		rec.URL = strings.TrimSpace(string(el.EE[0]))
	}

	for _, a := range el.Authors {
		rec.Authors = append(rec.Authors, strings.TrimSpace(string(a)))
	}

	fields := append([]string{rec.Key, rec.Title, rec.Venue, rec.URL}, rec.Authors...)
	for _, f := range fields {
		if ref := unresolvedEntity.FindString(f); ref != "" {
			return types.Record{}, &ExtractionError{Key: key, Reason: "unresolved entity " + ref}
		}
	}

	return rec, nil
}

// cleanTitle trims whitespace and trailing periods.
func cleanTitle(s string) string {
	return strings.TrimSpace(strings.TrimRight(strings.TrimSpace(s), "."))
}

// text collects all character data below an element, ignoring markup such
// as <i> or <sub> inside titles.
type text string

func (t *text) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	var b strings.Builder
	for depth := 1; depth > 0; {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch v := tok.(type) {
		case xml.CharData:
			b.Write(v)
		case xml.StartElement:
			depth++
		case xml.EndElement:
			depth--
		}
	}
	// The first occurrence of a repeated single-valued child wins.
	if *t == "" {
		*t = text(b.String())
	}
	return nil
}

func charsetReader(label string, input io.Reader) (io.Reader, error) {
	enc, err := ianaindex.IANA.Encoding(label)
	if err != nil {
		return nil, fmt.Errorf("unsupported charset %q: %w", label, err)
	}
	if enc == nil {
		return nil, fmt.Errorf("unsupported charset %q", label)
	}
	return enc.NewDecoder().Reader(input), nil
}
