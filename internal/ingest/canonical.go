package ingest

import (
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/AngelCh415/crm-dashboard/internal/fields"
	"github.com/AngelCh415/crm-dashboard/internal/models"
	"github.com/AngelCh415/crm-dashboard/internal/pipeline"
)

// BuildCatalog indexes the export's tag list by id and by normalized name.
func BuildCatalog(tags []gjson.Result) *models.TagCatalog {
	cat := models.NewTagCatalog()
	for _, t := range tags {
		if !t.IsObject() {
			continue
		}
		tag := models.Tag{Name: text(t.Get("name")), Color: text(t.Get("bgColor"))}
		if tag.Color == "" {
			tag.Color = text(t.Get("color"))
		}
		cat.Put(text(t.Get("id")), tag)
		cat.Put(fields.Normalize(tag.Name), tag)
	}
	return cat
}

func StepDefs(steps []gjson.Result) []pipeline.StepDef {
	out := make([]pipeline.StepDef, 0, len(steps))
	for _, s := range steps {
		title := text(s.Get("title"))
		if title == "" {
			title = text(s.Get("name"))
		}
		out = append(out, pipeline.StepDef{ID: text(s.Get("id")), Title: title})
	}
	return out
}

// Canonicalize resolves every raw card shape into models.Card. Entries that
// are not objects are skipped.
func Canonicalize(raw []gjson.Result, cat *models.TagCatalog) []*models.Card {
	out := make([]*models.Card, 0, len(raw))
	for _, r := range raw {
		if !r.IsObject() {
			continue
		}
		out = append(out, canonical(r, cat))
	}
	return out
}

func canonical(r gjson.Result, cat *models.TagCatalog) *models.Card {
	c := &models.Card{
		ID:                text(r.Get("id")),
		Title:             text(r.Get("title")),
		Position:          r.Get("position").Float(),
		StageID:           firstText(r, "stepId", "stageId"),
		StageName:         firstText(r, "stepName", "stageName"),
		ResponsibleID:     firstText(r, "responsibleUserId", "responsibleUser.id"),
		ResponsibleName:   text(r.Get("responsibleUser.name")),
		CreatedAt:         r.Get("createdAt"),
		UpdatedAt:         r.Get("updatedAt"),
		MonetaryAmount:    r.Get("monetaryAmount"),
		AltMonetaryAmount: r.Get("monetary_amount"),
		RawValue:          r.Get("value"),
		Attrs:             objectAttrs(r),
	}
	c.CustomFields, c.CustomFieldList = customFields(r.Get("customFields"))
	c.Contact = contact(r)
	c.Tags = cardTags(r, cat)
	return c
}

func contact(r gjson.Result) *models.Contact {
	var raw gjson.Result
	switch {
	case r.Get("contactDetails").IsObject():
		raw = r.Get("contactDetails")
	case r.Get("contacts.0").IsObject():
		raw = r.Get("contacts.0")
	case r.Get("contact").IsObject():
		raw = r.Get("contact")
	default:
		return nil
	}
	ct := &models.Contact{Name: text(raw.Get("name"))}
	ct.CustomFields, ct.CustomFieldList = customFields(raw.Get("customFields"))
	if utm := raw.Get("utm"); utm.IsObject() {
		ct.UTM = objectAttrs(utm)
	}
	return ct
}

// customFields splits the two shapes custom fields come in: a plain object,
// or a list of {name|key|id, value|text} entries.
func customFields(v gjson.Result) (obj, list []models.Attr) {
	switch {
	case v.IsObject():
		return objectAttrs(v), nil
	case v.IsArray():
		for _, f := range v.Array() {
			key := firstText(f, "name", "key", "id")
			val := f.Get("value")
			if !truthy(val) {
				val = f.Get("text")
			}
			if key == "" || !val.Exists() || val.Type == gjson.Null {
				continue
			}
			list = append(list, models.Attr{Key: key, Value: val})
		}
	}
	return nil, list
}

func objectAttrs(v gjson.Result) []models.Attr {
	var out []models.Attr
	v.ForEach(func(k, val gjson.Result) bool {
		out = append(out, models.Attr{Key: k.String(), Value: val})
		return true
	})
	return out
}

// cardTags reads tags_data, else tags_names, else tags. Tag references by id
// are resolved through the catalog.
func cardTags(r gjson.Result, cat *models.TagCatalog) []models.Tag {
	var out []models.Tag
	if td := r.Get("tags_data"); td.IsArray() {
		for _, t := range td.Array() {
			if name := text(t.Get("name")); name != "" {
				out = append(out, models.Tag{Name: name, Color: text(t.Get("color"))})
			}
		}
		return out
	}
	if names := text(r.Get("tags_names")); names != "" {
		for _, n := range strings.Split(names, ",") {
			if n = strings.TrimSpace(n); n != "" {
				out = append(out, models.Tag{Name: n})
			}
		}
		return out
	}
	for _, t := range arrayOf(r.Get("tags")) {
		var tag models.Tag
		switch {
		case t.Type == gjson.String:
			tag.Name = t.Str
		case t.IsObject():
			tag = models.Tag{Name: text(t.Get("name")), Color: text(t.Get("bgColor"))}
			if tag.Name == "" {
				if ref, ok := cat.Get(text(t.Get("id"))); ok {
					tag = ref
				}
			}
		}
		if tag.Name != "" {
			out = append(out, tag)
		}
	}
	return out
}

// text renders scalars as strings: numbers keep their raw form, anything
// else is empty.
func text(v gjson.Result) string {
	switch v.Type {
	case gjson.String:
		return v.Str
	case gjson.Number:
		if v.Raw != "" {
			return v.Raw
		}
		return strconv.FormatFloat(v.Num, 'f', -1, 64)
	default:
		return ""
	}
}

func firstText(v gjson.Result, paths ...string) string {
	for _, p := range paths {
		if s := text(v.Get(p)); s != "" && s != "0" {
			return s
		}
	}
	return ""
}

func truthy(v gjson.Result) bool {
	switch v.Type {
	case gjson.Null, gjson.False:
		return false
	case gjson.Number:
		return v.Num != 0
	case gjson.String:
		return v.Str != ""
	default:
		return v.Exists()
	}
}
