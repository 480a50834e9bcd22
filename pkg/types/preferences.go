package types

import (
	"sort"
	"strings"
)

// DefaultCacheSizeMB is the cache size given to freshly created preferences.
const DefaultCacheSizeMB = 100

// UserPreferences is the per-user row of feature toggles.
type UserPreferences struct {
	UserID              string `json:"user_id"`
	PriceAlerts         bool   `json:"price_alerts"`
	WeatherUpdates      bool   `json:"weather_updates"`
	SchemeUpdates       bool   `json:"scheme_updates"`
	DiseaseAlerts       bool   `json:"disease_alerts"`
	IrrigationReminders bool   `json:"irrigation_reminders"`
	PushNotifications   bool   `json:"push_notifications"`
	SMSNotifications    bool   `json:"sms_notifications"`
	EmailNotifications  bool   `json:"email_notifications"`
	ShareLocation       bool   `json:"share_location"`
	ShareCropData       bool   `json:"share_crop_data"`
	VoiceNavigation     bool   `json:"voice_navigation"`
	LargeText           bool   `json:"large_text"`
	HighContrast        bool   `json:"high_contrast"`
	AutoBackup          bool   `json:"auto_backup"`
	OfflineMode         bool   `json:"offline_mode"`
	DataSync            bool   `json:"data_sync"`
	CacheSize           int    `json:"cache_size"` // MB
}

// DefaultPreferences returns the starting toggles for a new user: alerts
// on, personal data sharing off, accessibility off, sync on.
func DefaultPreferences(userID string) *UserPreferences {
	return &UserPreferences{
		UserID:              userID,
		PriceAlerts:         true,
		WeatherUpdates:      true,
		SchemeUpdates:       true,
		DiseaseAlerts:       true,
		IrrigationReminders: true,
		PushNotifications:   true,
		ShareCropData:       true,
		VoiceNavigation:     true,
		AutoBackup:          true,
		DataSync:            true,
		CacheSize:           DefaultCacheSizeMB,
	}
}

// PreferenceField names one boolean toggle. Its value is the column name.
type PreferenceField string

// Toggle fields.
const (
	PrefPriceAlerts         PreferenceField = "price_alerts"
	PrefWeatherUpdates      PreferenceField = "weather_updates"
	PrefSchemeUpdates       PreferenceField = "scheme_updates"
	PrefDiseaseAlerts       PreferenceField = "disease_alerts"
	PrefIrrigationReminders PreferenceField = "irrigation_reminders"
	PrefPushNotifications   PreferenceField = "push_notifications"
	PrefSMSNotifications    PreferenceField = "sms_notifications"
	PrefEmailNotifications  PreferenceField = "email_notifications"
	PrefShareLocation       PreferenceField = "share_location"
	PrefShareCropData       PreferenceField = "share_crop_data"
	PrefVoiceNavigation     PreferenceField = "voice_navigation"
	PrefLargeText           PreferenceField = "large_text"
	PrefHighContrast        PreferenceField = "high_contrast"
	PrefAutoBackup          PreferenceField = "auto_backup"
	PrefOfflineMode         PreferenceField = "offline_mode"
	PrefDataSync            PreferenceField = "data_sync"
)

var preferenceFields = map[PreferenceField]func(*UserPreferences) *bool{
	PrefPriceAlerts:         func(p *UserPreferences) *bool { return &p.PriceAlerts },
	PrefWeatherUpdates:      func(p *UserPreferences) *bool { return &p.WeatherUpdates },
	PrefSchemeUpdates:       func(p *UserPreferences) *bool { return &p.SchemeUpdates },
	PrefDiseaseAlerts:       func(p *UserPreferences) *bool { return &p.DiseaseAlerts },
	PrefIrrigationReminders: func(p *UserPreferences) *bool { return &p.IrrigationReminders },
	PrefPushNotifications:   func(p *UserPreferences) *bool { return &p.PushNotifications },
	PrefSMSNotifications:    func(p *UserPreferences) *bool { return &p.SMSNotifications },
	PrefEmailNotifications:  func(p *UserPreferences) *bool { return &p.EmailNotifications },
	PrefShareLocation:       func(p *UserPreferences) *bool { return &p.ShareLocation },
	PrefShareCropData:       func(p *UserPreferences) *bool { return &p.ShareCropData },
	PrefVoiceNavigation:     func(p *UserPreferences) *bool { return &p.VoiceNavigation },
	PrefLargeText:           func(p *UserPreferences) *bool { return &p.LargeText },
	PrefHighContrast:        func(p *UserPreferences) *bool { return &p.HighContrast },
	PrefAutoBackup:          func(p *UserPreferences) *bool { return &p.AutoBackup },
	PrefOfflineMode:         func(p *UserPreferences) *bool { return &p.OfflineMode },
	PrefDataSync:            func(p *UserPreferences) *bool { return &p.DataSync },
}

// Valid reports whether f names a known toggle.
func (f PreferenceField) Valid() bool {
	_, ok := preferenceFields[f]
	return ok
}

// ParsePreferenceField accepts the column name, with dashes or underscores,
// in any case. Returns ErrUnknownPreference otherwise.
func ParsePreferenceField(s string) (PreferenceField, error) {
	f := PreferenceField(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_"))
	if !f.Valid() {
		return "", ErrUnknownPreference
	}
	return f, nil
}

// PreferenceFields returns every toggle name in sorted order.
func PreferenceFields() []PreferenceField {
	out := make([]PreferenceField, 0, len(preferenceFields))
	for f := range preferenceFields {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Toggle returns the value of field f.
func (p *UserPreferences) Toggle(f PreferenceField) (bool, error) {
	get, ok := preferenceFields[f]
	if !ok {
		return false, ErrUnknownPreference
	}
	return *get(p), nil
}

// SetToggle sets field f in memory.
func (p *UserPreferences) SetToggle(f PreferenceField, enabled bool) error {
	get, ok := preferenceFields[f]
	if !ok {
		return ErrUnknownPreference
	}
	*get(p) = enabled
	return nil
}
