package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBrandingRoundTripKeepsUnknownKeys(t *testing.T) {
	payload := []byte(`{
		"site_name": "Мерч Лавка",
		"primary_color": "#112233",
		"sounds_enabled": false,
		"favicon_url": "https://cdn.example.com/f.ico",
		"social": {"telegram": "@merch"}
	}`)

	var b BrandingSettings
	require.NoError(t, json.Unmarshal(payload, &b))

	assert.Equal(t, "Мерч Лавка", b.SiteName)
	assert.Equal(t, "#112233", b.PrimaryColor)
	assert.False(t, b.SoundsEnabled)
	require.Contains(t, b.Extra, "favicon_url")
	require.Contains(t, b.Extra, "social")

	out, err := json.Marshal(b)
	require.NoError(t, err)

	var roundTripped map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(out, &roundTripped))
	assert.JSONEq(t, `"https://cdn.example.com/f.ico"`, string(roundTripped["favicon_url"]))
	assert.JSONEq(t, `{"telegram": "@merch"}`, string(roundTripped["social"]))
	assert.JSONEq(t, `"Мерч Лавка"`, string(roundTripped["site_name"]))
}

func TestBrandingKnownKeysNeverDuplicated(t *testing.T) {
	b := BrandingSettings{
		SiteName: "MerchCRM",
		Extra: map[string]json.RawMessage{
			// A stale copy of a known key must not override the typed field
			"site_name": json.RawMessage(`"Old Name"`),
		},
	}

	out, err := json.Marshal(b)
	require.NoError(t, err)

	var m map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(out, &m))
	assert.JSONEq(t, `"MerchCRM"`, string(m["site_name"]))
}

func TestBrandingWithoutExtras(t *testing.T) {
	b := BrandingSettings{SiteName: "MerchCRM", SoundsEnabled: true}

	out, err := json.Marshal(b)
	require.NoError(t, err)

	var restored BrandingSettings
	require.NoError(t, json.Unmarshal(out, &restored))
	assert.Equal(t, "MerchCRM", restored.SiteName)
	assert.True(t, restored.SoundsEnabled)
	assert.Empty(t, restored.Extra)
}
