package autocomplete

import "strings"

// FilterCities returns the cities whose lower-cased name starts with the lower-cased
// query, in directory order. An empty query matches every city. The result is never
// nil.
func FilterCities(query string, dir Directory) []string {
	prefix := strings.ToLower(query)
	out := make([]string, 0, len(dir.cities))
	for _, city := range dir.cities {
		if strings.HasPrefix(strings.ToLower(city), prefix) {
			out = append(out, city)
		}
	}
	return out
}
