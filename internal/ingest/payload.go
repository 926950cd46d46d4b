package ingest

import (
	"bytes"
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/AngelCh415/crm-dashboard/internal/models"
)

// Payload is the export split into its parts. Steps and Tags are optional.
type Payload struct {
	Cards []gjson.Result
	Steps []gjson.Result
	Tags  []gjson.Result
}

// Decode accepts a bare array of cards, an object with data (plus optional
// steps and tags), or either of those wrapped in a json key. An empty body
// yields a nil payload and no error.
func Decode(body []byte) (*Payload, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, nil
	}
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("%w: %d bytes", models.ErrMalformedPayload, len(body))
	}
	root := gjson.ParseBytes(body)
	p := &Payload{}
	if !unwrap(root, p) {
		if inner := root.Get("json"); inner.Exists() {
			unwrap(inner, p)
		}
	}
	return p, nil
}

func unwrap(v gjson.Result, p *Payload) bool {
	if v.IsArray() {
		p.Cards = v.Array()
		return true
	}
	if data := v.Get("data"); data.IsArray() {
		p.Cards = data.Array()
		p.Steps = arrayOf(v.Get("steps"))
		p.Tags = arrayOf(v.Get("tags"))
		return true
	}
	return false
}

func arrayOf(v gjson.Result) []gjson.Result {
	if !v.IsArray() {
		return nil
	}
	return v.Array()
}
