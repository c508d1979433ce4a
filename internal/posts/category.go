package posts

import (
	"sort"
	"strings"
)

// PresetCategories are offered by the editor; any other non-empty value is a
// custom category.
var PresetCategories = []string{
	"Technology",
	"Design",
	"Business",
	"Marketing",
	"Development",
	"Tutorial",
	"News",
	"Other",
}

type CategoryCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func IsPresetCategory(name string) bool {
	for _, c := range PresetCategories {
		if c == name {
			return true
		}
	}
	return false
}

// CountCategories tallies non-empty categories, most used first and ties by
// name.
func CountCategories(list []Post) []CategoryCount {
	counts := make(map[string]int)
	for _, p := range list {
		name := strings.TrimSpace(p.Category)
		if name == "" {
			continue
		}
		counts[name]++
	}
	out := make([]CategoryCount, 0, len(counts))
	for name, n := range counts {
		out = append(out, CategoryCount{Name: name, Count: n})
	}
	sortCategories(out)
	return out
}

func sortCategories(cs []CategoryCount) {
	sort.Slice(cs, func(i, j int) bool {
		if cs[i].Count != cs[j].Count {
			return cs[i].Count > cs[j].Count
		}
		return cs[i].Name < cs[j].Name
	})
}
