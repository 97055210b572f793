package receptionist

import (
	"strings"

	"github.com/wolfman30/geecurly-receptionist/internal/catalog"
)

// FindService returns the first service whose name or category appears in text.
func FindService(services []catalog.Service, text string) (catalog.Service, bool) {
	lower := strings.ToLower(text)
	for _, s := range services {
		if containsFold(lower, s.Name) || containsFold(lower, s.Category) {
			return s, true
		}
	}
	return catalog.Service{}, false
}

// FindStaff returns the first staff member whose name or role appears in text.
func FindStaff(staff []catalog.Staff, text string) (catalog.Staff, bool) {
	lower := strings.ToLower(text)
	for _, s := range staff {
		if containsFold(lower, s.Name) || containsFold(lower, s.Role) {
			return s, true
		}
	}
	return catalog.Staff{}, false
}

func containsFold(lowerText, candidate string) bool {
	if candidate == "" {
		return false
	}
	return strings.Contains(lowerText, strings.ToLower(candidate))
}

// staffAt narrows staff to one salon when anyone there covers the request.
func staffAt(staff []catalog.Staff, location string) []catalog.Staff {
	var local []catalog.Staff
	for _, s := range staff {
		if s.Location == location {
			local = append(local, s)
		}
	}
	if len(local) == 0 {
		return staff
	}
	return local
}

func staffNames(staff []catalog.Staff) []string {
	names := make([]string, 0, len(staff))
	for _, s := range staff {
		names = append(names, s.Name)
	}
	return names
}

// categories lists service categories in catalog order.
func categories(services []catalog.Service) []string {
	seen := map[string]bool{}
	var out []string
	for _, s := range services {
		if !seen[s.Category] {
			seen[s.Category] = true
			out = append(out, s.Category)
		}
	}
	return out
}
