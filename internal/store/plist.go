package store

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
)

// plistKeys returns the keys of the top-level dict in an XML property list,
// as printed by `defaults export <domain> -`.
func plistKeys(data []byte) ([]string, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	// Apple plists reference a DTD the decoder does not need to fetch.
	dec.Strict = false

	var (
		keys  []string
		depth int
		inKey bool
		key   strings.Builder
	)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parsing plist: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			// plist > dict > key
			if depth == 3 && t.Name.Local == "key" {
				inKey = true
				key.Reset()
			}
		case xml.EndElement:
			if inKey && t.Name.Local == "key" {
				keys = append(keys, key.String())
				inKey = false
			}
			depth--
		case xml.CharData:
			if inKey {
				key.Write(t)
			}
		}
	}
	slices.Sort(keys)
	return keys, nil
}
