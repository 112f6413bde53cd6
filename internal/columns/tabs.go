package columns

// Tab is a secondary tab on an object-detail screen, backed by a
// relationship. Count is filled in from query results by ObjectTabs.
type Tab struct {
	Name  string `json:"name"`
	Label string `json:"label"`
	Peer  string `json:"peer,omitempty"`
	Count *int   `json:"count,omitempty"`
}

// ObjectTabs joins tabs with fetched node data: each tab's count is
// data[tab.Name].count when present. The input slice is not modified.
func ObjectTabs(tabs []Tab, data map[string]any) []Tab {
	out := make([]Tab, len(tabs))
	for i, tab := range tabs {
		tab.Count = nil
		if n, ok := countOf(data[tab.Name]); ok {
			tab.Count = &n
		}
		out[i] = tab
	}
	return out
}

func countOf(v any) (int, bool) {
	m, ok := v.(map[string]any)
	if !ok {
		return 0, false
	}
	switch c := m["count"].(type) {
	case float64:
		return int(c), true
	case int:
		return c, true
	case int64:
		return int(c), true
	default:
		return 0, false
	}
}
