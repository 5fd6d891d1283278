// File path: internal/cache/keys.go
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
)

// TemplateChecker reports whether a role type shares a pre-keyed structure
// template. curriculum.Catalog satisfies it.
type TemplateChecker interface {
	HasTemplate(roleType string) bool
}

// StructureKey derives the cache key for a topic outline. Common role types
// share one template key so every user of that role hits the same entry;
// everything else is hashed from the topic and its sorted keywords.
func StructureKey(checker TemplateChecker, roleType, topic string, keywords []string) string {
	role := strings.ToLower(strings.TrimSpace(roleType))
	if checker != nil && role != "" && checker.HasTemplate(role) {
		return "template:" + role + ":" + normalize(topic)
	}
	sorted := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		kw = normalize(kw)
		if kw != "" {
			sorted = append(sorted, kw)
		}
	}
	sort.Strings(sorted)
	return hashKey(append([]string{normalize(topic)}, sorted...))
}

// ContentKey derives the cache key for one section's long-form content.
func ContentKey(topic, sectionID, sectionTitle string) string {
	return hashKey([]string{normalize(topic), normalize(sectionID), normalize(sectionTitle)})
}

func normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

func hashKey(parts []string) string {
	h := sha256.New()
	for i, part := range parts {
		if i > 0 {
			h.Write([]byte{0})
		}
		h.Write([]byte(part))
	}
	return hex.EncodeToString(h.Sum(nil))
}
