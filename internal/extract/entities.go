// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"
)

// entityDecl matches a general entity declaration such as
//
//	<!ENTITY Auml "&#196;" ><!-- capital A, dieresis or umlaut mark -->
//
// Parameter entities (<!ENTITY % name ...>) do not match.
var entityDecl = regexp.MustCompile(`<!ENTITY\s+([A-Za-z_][A-Za-z0-9._-]*)\s+"([^"]*)"\s*>`)

// charRef matches a decimal or hexadecimal character reference.
var charRef = regexp.MustCompile(`&#(?:x([0-9A-Fa-f]+)|([0-9]+));`)

// LoadEntities reads the DTD at path and returns its named character
// entities with values resolved to literal text.
func LoadEntities(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening entity definitions: %w", err)
	}
	defer f.Close()
	return ParseEntities(f)
}

// ParseEntities reads entity declarations from a DTD.
func ParseEntities(r io.Reader) (map[string]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading entity definitions: %w", err)
	}

	entities := make(map[string]string)
	for _, m := range entityDecl.FindAllSubmatch(data, -1) {
		name := string(m[1])
		if _, seen := entities[name]; seen {
			// XML keeps the first declaration of an entity.
			continue
		}
		entities[name] = resolveCharRefs(string(m[2]))
	}
	return entities, nil
}

func resolveCharRefs(s string) string {
	if !strings.Contains(s, "&#") {
		return s
	}
	return charRef.ReplaceAllStringFunc(s, func(ref string) string {
		m := charRef.FindStringSubmatch(ref)
		var (
			n   uint64
			err error
		)
		if m[1] != "" {
			n, err = strconv.ParseUint(m[1], 16, 32)
		} else {
			n, err = strconv.ParseUint(m[2], 10, 32)
		}
		if err != nil || n > 0x10FFFF {
			return ref
		}
		return string(rune(n))
	})
}
