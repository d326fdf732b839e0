package domain

import "sort"

// AllCategories selects the whole catalog.
const AllCategories = "all"

// VisibleProducts returns all unchanged for AllCategories, otherwise the products of the
// selected category in their original order.
func VisibleProducts(all []Product, selected string) []Product {
	if selected == AllCategories {
		return all
	}

	visible := make([]Product, 0, len(all))
	for _, p := range all {
		if p.Category == selected {
			visible = append(visible, p)
		}
	}
	return visible
}

// AvailableCategories returns the distinct non-empty categories in ascending order.
func AvailableCategories(all []Product) []string {
	seen := make(map[string]struct{}, len(all))
	categories := make([]string, 0)
	for _, p := range all {
		if p.Category == "" {
			continue
		}
		if _, ok := seen[p.Category]; ok {
			continue
		}
		seen[p.Category] = struct{}{}
		categories = append(categories, p.Category)
	}
	sort.Strings(categories)
	return categories
}
