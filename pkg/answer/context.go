package answer

import (
	"bytes"
	"encoding/json"
)

// Context is the retrieval metadata the backend attaches to an answer.
type Context struct {
	ContextChunks   []string   `json:"context_chunks"`
	Citations       []Citation `json:"citations"`
	SimilarityScore *float64   `json:"similarity_score,omitempty"`
}

// Citation points at a source passage. The backend sends either a bare
// string or an object; both decode into a Citation.
type Citation struct {
	Source string   `json:"source,omitempty"`
	Text   string   `json:"text,omitempty"`
	Page   *int     `json:"page,omitempty"`
	Score  *float64 `json:"score,omitempty"`
}

func (c *Citation) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*c = Citation{Source: s}
		return nil
	}

	type plain Citation
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*c = Citation(p)
	return nil
}

// Label is a short human readable name for the citation.
func (c Citation) Label() string {
	if c.Source != "" {
		return c.Source
	}
	return c.Text
}

// ParseContext decodes the raw JSON of a __CONTEXT__ marker.
func ParseContext(raw string) (*Context, error) {
	var c Context
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		return nil, err
	}
	return &c, nil
}
