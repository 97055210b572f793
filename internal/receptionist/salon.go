package receptionist

import (
	"strings"
	"time"

	"github.com/wolfman30/geecurly-receptionist/internal/catalog"
)

// Location is one GeeCurly branch.
type Location struct {
	Key      string `json:"key"`
	Label    string `json:"label"`
	Name     string `json:"name"`
	Address  string `json:"address"`
	Area     string `json:"area"`
	Phone    string `json:"phone"`
	WhatsApp string `json:"whatsapp"`
}

// SalonInfo is the static business profile quoted in replies.
type SalonInfo struct {
	Name          string
	Tagline       string
	SocialProof   string
	TikTokHandle  string
	Owner         string
	WeekdayHours  string
	SundayHours   string
	LocationOrder []string
	Locations     map[string]Location
}

// DefaultSalonInfo returns the GeeCurly profile with hours taken from the catalog defaults.
func DefaultSalonInfo() SalonInfo {
	hours := catalog.DefaultHours()
	return SalonInfo{
		Name:          "GeeCurly Salon",
		Tagline:       "Your Beauty, Our Passion. Now Smarter With AI",
		SocialProof:   "Trusted by 1M+ beauty lovers on TikTok",
		TikTokHandle:  "@gee_curly_salon",
		Owner:         "Sam Karanja",
		WeekdayHours:  hours[time.Monday].Describe(),
		SundayHours:   hours[time.Sunday].Describe(),
		LocationOrder: []string{"kiambu", "roysambu"},
		Locations: map[string]Location{
			"kiambu": {
				Key:      "kiambu",
				Label:    "Kiambu",
				Name:     "Kiambu Road Bypass",
				Address:  "Next to Pro Swim",
				Area:     "Kiambu Road",
				Phone:    "0715 589 102",
				WhatsApp: "254715589102",
			},
			"roysambu": {
				Key:      "roysambu",
				Label:    "Roysambu",
				Name:     "Roysambu, Lumumba Drive",
				Address:  "Opposite Nairobi Butchery, Flash Building 2nd Floor",
				Area:     "Roysambu",
				Phone:    "0700 235 466",
				WhatsApp: "254700235466",
			},
		},
	}
}

// Location returns the branch for key, falling back to the first listed branch.
func (s SalonInfo) Location(key string) Location {
	if loc, ok := s.Locations[key]; ok {
		return loc
	}
	if len(s.LocationOrder) > 0 {
		return s.Locations[s.LocationOrder[0]]
	}
	return Location{}
}

// HasLocation reports whether key names a branch.
func (s SalonInfo) HasLocation(key string) bool {
	_, ok := s.Locations[key]
	return ok
}

// MatchLocation finds the first branch whose key or area is mentioned in text.
func (s SalonInfo) MatchLocation(text string) (string, bool) {
	lower := strings.ToLower(text)
	for _, key := range s.LocationOrder {
		loc := s.Locations[key]
		if strings.Contains(lower, key) || containsFold(lower, loc.Area) {
			return key, true
		}
	}
	return "", false
}
