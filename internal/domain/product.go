package domain

import (
	"bytes"
	"encoding/json"
	"strings"
)

// ProductRecord is one product card. Fields missing on the card stay empty.
type ProductRecord struct {
	Title         string      `json:"title"`
	Link          string      `json:"link"`
	ImageRef      string      `json:"image"`
	RatingSummary string      `json:"rating_text"`       // Legacy rating container text
	RatingLabel   string      `json:"rating_aria_label"` // Newer aria-label rating
	Price         string      `json:"price"`
	Attributes    *Attributes `json:"details"`
}

// Attributes is a string map that remembers page order. Setting an existing
// key keeps its position and replaces the value.
type Attributes struct {
	keys   []string
	values map[string]string
}

func NewAttributes() *Attributes {
	return &Attributes{values: make(map[string]string)}
}

// Set records key=value. Empty keys or values are ignored.
func (a *Attributes) Set(key, value string) {
	if key == "" || value == "" {
		return
	}
	if a.values == nil {
		a.values = make(map[string]string)
	}
	if _, exists := a.values[key]; !exists {
		a.keys = append(a.keys, key)
	}
	a.values[key] = value
}

func (a *Attributes) Len() int {
	if a == nil {
		return 0
	}
	return len(a.keys)
}

// Keys returns the keys in page order.
func (a *Attributes) Keys() []string {
	if a == nil {
		return nil
	}
	return append([]string(nil), a.keys...)
}

// String renders the attributes as a JSON object in page order, e.g.
// {"Farbe": "Schwarz", "Gewicht": "1,2 kg"}. Non-ASCII text is kept as is.
func (a *Attributes) String() string {
	var sb strings.Builder
	sb.WriteByte('{')
	for i, key := range a.Keys() {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(quoteJSON(key))
		sb.WriteString(": ")
		sb.WriteString(quoteJSON(a.values[key]))
	}
	sb.WriteByte('}')
	return sb.String()
}

func (a *Attributes) MarshalJSON() ([]byte, error) {
	return []byte(a.String()), nil
}

func quoteJSON(s string) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(s)
	return strings.TrimSuffix(buf.String(), "\n")
}
