package cite

import (
	"io"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/bibindex/pkg/types"
)

// CSLItem represents a bibliographic entry in CSL (Citation Style Language)
// format. The field names and structure follow the CSL-JSON/CSL-YAML schema
// so that output is consumable by Pandoc and reference managers.
type CSLItem struct {
	ID             string    `yaml:"id"`
	Type           string    `yaml:"type"`
	Title          string    `yaml:"title"`
	Author         []CSLName `yaml:"author,omitempty"`
	ContainerTitle string    `yaml:"container-title,omitempty"`
	Issued         *CSLDate  `yaml:"issued,omitempty"`
	URL            string    `yaml:"URL,omitempty"`
}

// CSLName represents a person's name in CSL format.
type CSLName struct {
	Family  string `yaml:"family,omitempty"`
	Given   string `yaml:"given,omitempty"`
	Literal string `yaml:"literal,omitempty"`
}

// CSLDate represents a date in CSL format using date-parts.
type CSLDate struct {
	DateParts [][]int `yaml:"date-parts"`
}

// FormatCSL writes records as a CSL-YAML list to w.
func FormatCSL(recs []types.Record, w io.Writer) error {
	items := make([]CSLItem, len(recs))
	for i, r := range recs {
		items[i] = ToCSLItem(r)
	}
	enc := yaml.NewEncoder(w)
	defer enc.Close()
	return enc.Encode(items)
}

// ToCSLItem converts a Record to a CSLItem.
func ToCSLItem(r types.Record) CSLItem {
	item := CSLItem{
		ID:             CiteKey(r.Key),
		Type:           "article-journal",
		Title:          r.Title,
		ContainerTitle: r.Venue,
		URL:            r.URL,
	}
	if r.Kind == types.KindInproceedings {
		item.Type = "paper-conference"
	}

	for _, a := range r.Authors {
		item.Author = append(item.Author, parseAuthorName(a))
	}

	if r.Year != nil {
		item.Issued = &CSLDate{DateParts: [][]int{{*r.Year}}}
	}

	return item
}

// parseAuthorName splits a full name string into CSL family/given parts.
// DBLP disambiguates homonyms with a trailing number ("Wei Wang 0001");
// the number is dropped. Single-token names use the literal field.
func parseAuthorName(name string) CSLName {
	fields := strings.Fields(name)
	if n := len(fields); n > 1 && isDigits(fields[n-1]) {
		fields = fields[:n-1]
	}
	switch len(fields) {
	case 0:
		return CSLName{}
	case 1:
		return CSLName{Literal: fields[0]}
	}
	last := len(fields) - 1
	return CSLName{
		Given:  strings.Join(fields[:last], " "),
		Family: fields[last],
	}
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
