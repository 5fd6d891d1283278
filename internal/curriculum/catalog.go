// File path: internal/curriculum/catalog.go
package curriculum

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/nicodishanthj/pathlight/internal/common"
	"github.com/nicodishanthj/pathlight/internal/learn"
)

// Catalog carries the role types that map to pre-keyed structure templates and
// the fallback resources recommended for topics the index cannot cover.
// Fallback lookup is by case-insensitive substring match on the topic name.
type Catalog struct {
	TemplateRoles []string                    `json:"template_roles"`
	Fallbacks     map[string][]learn.Resource `json:"fallbacks"`
	Generic       []learn.Resource            `json:"generic"`
}

// Merge overlays non-empty fields of other onto the catalog.
func (c Catalog) Merge(other Catalog) Catalog {
	merged := c
	if len(other.TemplateRoles) > 0 {
		merged.TemplateRoles = other.TemplateRoles
	}
	if len(other.Fallbacks) > 0 {
		if merged.Fallbacks == nil {
			merged.Fallbacks = make(map[string][]learn.Resource, len(other.Fallbacks))
		}
		for key, resources := range other.Fallbacks {
			merged.Fallbacks[key] = resources
		}
	}
	if len(other.Generic) > 0 {
		merged.Generic = other.Generic
	}
	return merged
}

func defaultCatalog() Catalog {
	return Catalog{
		TemplateRoles: []string{"data_analyst", "data_engineer", "data_scientist", "software_engineer", "ml_engineer"},
		Fallbacks: map[string][]learn.Resource{
			"sql": {
				{Title: "SQLBolt interactive lessons", URL: "https://sqlbolt.com", Type: "course"},
				{Title: "Mode SQL tutorial", URL: "https://mode.com/sql-tutorial", Type: "tutorial"},
			},
			"statistics": {
				{Title: "Khan Academy: Statistics and probability", URL: "https://www.khanacademy.org/math/statistics-probability", Type: "course"},
			},
			"probability": {
				{Title: "Khan Academy: Statistics and probability", URL: "https://www.khanacademy.org/math/statistics-probability", Type: "course"},
			},
			"python": {
				{Title: "Official Python tutorial", URL: "https://docs.python.org/3/tutorial/", Type: "tutorial"},
			},
			"machine learning": {
				{Title: "scikit-learn user guide", URL: "https://scikit-learn.org/stable/user_guide.html", Type: "documentation"},
			},
			"excel": {
				{Title: "Microsoft Excel training", URL: "https://support.microsoft.com/en-us/training", Type: "course"},
			},
		},
		Generic: []learn.Resource{
			{Title: "Search the topic on Coursera", URL: "https://www.coursera.org", Type: "catalog"},
			{Title: "Search the topic on MIT OpenCourseWare", URL: "https://ocw.mit.edu", Type: "catalog"},
		},
	}
}

// LoadCatalog builds the catalog from compiled defaults overlaid with the JSON
// file pointed to by PATHLIGHT_CATALOG_FILE, when set.
func LoadCatalog(path string) (Catalog, error) {
	catalog := defaultCatalog()
	if path == "" {
		path = strings.TrimSpace(os.Getenv("PATHLIGHT_CATALOG_FILE"))
	}
	if path == "" {
		return catalog, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return catalog, fmt.Errorf("curriculum: read catalog file: %w", err)
	}
	var fromFile Catalog
	if err := json.Unmarshal(data, &fromFile); err != nil {
		return catalog, fmt.Errorf("curriculum: parse catalog file: %w", err)
	}
	common.Logger().Info("curriculum: catalog loaded", "path", path,
		"template_roles", len(fromFile.TemplateRoles), "fallback_keys", len(fromFile.Fallbacks))
	return catalog.Merge(fromFile), nil
}

// HasTemplate reports whether the role type uses a shared template cache key.
func (c Catalog) HasTemplate(roleType string) bool {
	roleType = strings.ToLower(strings.TrimSpace(roleType))
	for _, role := range c.TemplateRoles {
		if strings.ToLower(role) == roleType {
			return true
		}
	}
	return false
}

// ResourcesFor returns fallback resources whose catalog key appears in the
// topic name, falling back to the generic list when nothing matches.
func (c Catalog) ResourcesFor(topic string) []learn.Resource {
	normalized := strings.ToLower(topic)
	keys := make([]string, 0, len(c.Fallbacks))
	for key := range c.Fallbacks {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	var out []learn.Resource
	for _, key := range keys {
		if strings.Contains(normalized, strings.ToLower(key)) {
			out = append(out, c.Fallbacks[key]...)
		}
	}
	if len(out) == 0 {
		out = append(out, c.Generic...)
	}
	return dedupeResources(out)
}

func dedupeResources(resources []learn.Resource) []learn.Resource {
	seen := make(map[string]struct{}, len(resources))
	out := resources[:0]
	for _, res := range resources {
		if _, dup := seen[res.URL]; dup {
			continue
		}
		seen[res.URL] = struct{}{}
		out = append(out, res)
	}
	return out
}
