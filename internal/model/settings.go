package model

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// Setting keys
const (
	SettingBranding        = "branding"
	SettingMaintenanceMode = "maintenance_mode"
)

// SystemSetting is a generic key/value store for application-wide configuration
type SystemSetting struct {
	Key       string         `gorm:"type:varchar(100);primaryKey" json:"key"`
	Value     datatypes.JSON `gorm:"type:jsonb;not null" json:"value"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}

// BrandingSettings is the typed shape of the "branding" setting. Keys the
// current build does not know about survive round trips through Extra.
type BrandingSettings struct {
	SiteName      string `json:"site_name"`
	LogoURL       string `json:"logo_url"`
	PrimaryColor  string `json:"primary_color"`
	ContactEmail  string `json:"contact_email"`
	ContactPhone  string `json:"contact_phone"`
	SoundsEnabled bool   `json:"sounds_enabled"`

	Extra map[string]json.RawMessage `json:"-"`
}

// knownBrandingKeys lists the fields handled explicitly above
var knownBrandingKeys = map[string]bool{
	"site_name":      true,
	"logo_url":       true,
	"primary_color":  true,
	"contact_email":  true,
	"contact_phone":  true,
	"sounds_enabled": true,
}

// MarshalJSON flattens Extra back into the top-level object
func (b BrandingSettings) MarshalJSON() ([]byte, error) {
	type plain BrandingSettings
	raw, err := json.Marshal(plain(b))
	if err != nil {
		return nil, err
	}
	if len(b.Extra) == 0 {
		return raw, nil
	}

	merged := make(map[string]json.RawMessage, len(b.Extra)+6)
	if err := json.Unmarshal(raw, &merged); err != nil {
		return nil, err
	}
	for k, v := range b.Extra {
		if !knownBrandingKeys[k] {
			merged[k] = v
		}
	}
	return json.Marshal(merged)
}

// UnmarshalJSON captures unknown keys into Extra instead of dropping them
func (b *BrandingSettings) UnmarshalJSON(data []byte) error {
	type plain BrandingSettings
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}

	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return err
	}
	for k := range all {
		if knownBrandingKeys[k] {
			delete(all, k)
		}
	}

	*b = BrandingSettings(p)
	if len(all) > 0 {
		b.Extra = all
	}
	return nil
}
