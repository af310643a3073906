package extract

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// plainText decodes UTF-8 text, honouring a UTF-8 or UTF-16 byte order mark.
func plainText(r io.Reader) (string, error) {
	decoded := transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
	data, err := io.ReadAll(decoded)
	if err != nil {
		return "", fmt.Errorf("decoding text: %w", err)
	}
	return string(data), nil
}

// jsonText validates a JSON document and pretty-prints it.
func jsonText(r io.Reader) (string, error) {
	raw, err := plainText(r)
	if err != nil {
		return "", err
	}

	var out bytes.Buffer
	if err := json.Indent(&out, []byte(raw), "", "  "); err != nil {
		return "", fmt.Errorf("invalid json: %w", err)
	}
	return out.String(), nil
}
