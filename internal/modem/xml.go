package modem

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// valueFromTag scans an XML document for the first start element named tag
// (case-sensitive, no namespace matching) and returns its character data.
// Vendor responses are single-level flat documents, so a streaming
// tokenizer is sufficient and avoids building a full element tree.
func valueFromTag(doc []byte, tag string) (string, error) {
	dec := xml.NewDecoder(strings.NewReader(string(doc)))
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return "", fmt.Errorf("modem: tag %q not found", tag)
		}
		if err != nil {
			return "", fmt.Errorf("modem: parse xml: %w", err)
		}
		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != tag {
			continue
		}
		var text string
		if err := dec.DecodeElement(&text, &start); err != nil {
			return "", fmt.Errorf("modem: decode tag %q: %w", tag, err)
		}
		return strings.TrimSpace(text), nil
	}
}
