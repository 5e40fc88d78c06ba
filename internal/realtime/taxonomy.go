package realtime

import "strings"

// Resource is the canonical (plural) name of an entity collection, as used in
// topics and cache keys.
type Resource string

// Canonical resources
const (
	ResourcePersons      Resource = "persons"
	ResourceGifts        Resource = "gifts"
	ResourceLists        Resource = "lists"
	ResourceListItems    Resource = "list-items"
	ResourceOccasions    Resource = "occasions"
	ResourceGroups       Resource = "groups"
	ResourceFieldOptions Resource = "field-options"
	ResourceBudgets      Resource = "budgets"
	ResourceComments     Resource = "comments"
	ResourceActivity     Resource = "activity"
)

// Kind is a realtime event kind.
type Kind string

// Event kinds
const (
	Added         Kind = "ADDED"
	Updated       Kind = "UPDATED"
	Deleted       Kind = "DELETED"
	StatusChanged Kind = "STATUS_CHANGED"
)

// AllKinds returns every event kind, the default event set for a binding.
func AllKinds() []Kind {
	return []Kind{Added, Updated, Deleted, StatusChanged}
}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	switch k {
	case Added, Updated, Deleted, StatusChanged:
		return true
	}
	return false
}

// NormalizeResource maps a topic segment to its canonical resource.
// Handles both singular and plural forms.
func NormalizeResource(s string) (Resource, bool) {
	switch strings.ToLower(s) {
	case "person", "persons", "people":
		return ResourcePersons, true
	case "gift", "gifts", "idea", "ideas":
		return ResourceGifts, true
	case "list", "lists":
		return ResourceLists, true
	case "item", "items", "list-item", "list-items", "list_item", "list_items":
		return ResourceListItems, true
	case "occasion", "occasions":
		return ResourceOccasions, true
	case "group", "groups":
		return ResourceGroups, true
	case "field-option", "field-options", "field_option", "field_options":
		return ResourceFieldOptions, true
	case "budget", "budgets":
		return ResourceBudgets, true
	case "comment", "comments":
		return ResourceComments, true
	case "activity", "activities":
		return ResourceActivity, true
	default:
		return "", false
	}
}

// TopicResource returns the resource whose payloads travel on topic.
// "gifts" and "gift:7" carry gifts; "occasion:3:lists" carries lists.
func TopicResource(topic string) (Resource, bool) {
	parts := strings.Split(topic, ":")
	if len(parts) >= 3 {
		return NormalizeResource(parts[len(parts)-1])
	}
	return NormalizeResource(parts[0])
}
