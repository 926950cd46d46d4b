package attribution

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tidwall/gjson"

	"github.com/AngelCh415/crm-dashboard/internal/models"
)

func attrs(raw string) []models.Attr {
	var out []models.Attr
	gjson.Parse(raw).ForEach(func(k, v gjson.Result) bool {
		out = append(out, models.Attr{Key: k.String(), Value: v})
		return true
	})
	return out
}

func TestResolveDefaults(t *testing.T) {
	res := Resolve(&models.Card{Attrs: attrs(`{"id":"1","title":"Ana"}`)})
	assert.Equal(t, DefaultSource, res.Source)
	assert.Empty(t, res.Name)
	assert.Empty(t, res.URL)

	assert.Equal(t, DefaultSource, Resolve(nil).Source)
}

func TestResolvePrefersLongestSpecificValue(t *testing.T) {
	card := &models.Card{
		Attrs:        attrs(`{"utm_source":"ig","origem":"instagram_stories","source":"unknown-source-long"}`),
		CustomFields: attrs(`{"utm_campaign":"camp","ad_name":"Criativo Video 03","campaign":"api"}`),
	}
	res := Resolve(card)
	assert.Equal(t, "instagram_stories", res.Source)
	assert.Equal(t, "Criativo Video 03", res.Name)
}

func TestResolveRejectsPlaceholders(t *testing.T) {
	card := &models.Card{
		Attrs: attrs(`{"utm_source":"NULL","utm_campaign":"undefined","ad_name":"API","origem":0,"flag":false}`),
	}
	res := Resolve(card)
	assert.Equal(t, DefaultSource, res.Source)
	assert.Empty(t, res.Name)
}

func TestResolveContactUTMAndURL(t *testing.T) {
	card := &models.Card{
		Attrs: attrs(`{"landing_url":"https://lp.example.com/a","link_whats":"wa.me/123"}`),
		Contact: &models.Contact{
			UTM: attrs(`{"source":"google","campaign":"Black Friday Ads"}`),
		},
	}
	res := Resolve(card)
	assert.Equal(t, "google", res.Source)
	assert.Equal(t, "Black Friday Ads", res.Name)
	assert.Equal(t, "https://lp.example.com/a", res.URL)
}

func TestSourceColor(t *testing.T) {
	assert.Equal(t, "#4285F4", SourceColor("Google Ads"))
	assert.Equal(t, "#E1306C", SourceColor("Instagram"))
	assert.Equal(t, "#808080", SourceColor(DefaultSource))
}
