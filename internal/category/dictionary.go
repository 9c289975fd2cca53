// Package category maps free-text business terms to spatial-backend tag
// pairs, using a static dictionary first and an AI fallback last.
package category

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/market-scout/internal/model"
)

// Entry pairs a business term with its tag. The dictionary is an ordered
// slice, not a map: tie-breaking between overlapping terms must stay
// deterministic, so matches resolve in declaration order.
type Entry struct {
	Term  string `yaml:"term"`
	Key   string `yaml:"key"`
	Value string `yaml:"value"`
}

// Tag returns the entry's tag pair.
func (e Entry) Tag() model.CategoryTag {
	return model.CategoryTag{Key: e.Key, Value: e.Value}
}

// DefaultDictionary returns the built-in business-term dictionary.
func DefaultDictionary() []Entry {
	return []Entry{
		{Term: "coffee shop", Key: "amenity", Value: "cafe"},
		{Term: "coffee", Key: "amenity", Value: "cafe"},
		{Term: "cafe", Key: "amenity", Value: "cafe"},
		{Term: "coffeeshop", Key: "amenity", Value: "cafe"},
		{Term: "coffeehouse", Key: "amenity", Value: "cafe"},
		{Term: "restaurant", Key: "amenity", Value: "restaurant"},
		{Term: "restaurants", Key: "amenity", Value: "restaurant"},
		{Term: "dining", Key: "amenity", Value: "restaurant"},
		{Term: "gym", Key: "leisure", Value: "fitness_centre"},
		{Term: "fitness", Key: "leisure", Value: "fitness_centre"},
		{Term: "fitness center", Key: "leisure", Value: "fitness_centre"},
		{Term: "fitness centre", Key: "leisure", Value: "fitness_centre"},
		{Term: "bookstore", Key: "shop", Value: "books"},
		{Term: "book store", Key: "shop", Value: "books"},
		{Term: "books", Key: "shop", Value: "books"},
		{Term: "pharmacy", Key: "amenity", Value: "pharmacy"},
		{Term: "pharmacies", Key: "amenity", Value: "pharmacy"},
		{Term: "drugstore", Key: "amenity", Value: "pharmacy"},
		{Term: "gas station", Key: "amenity", Value: "fuel"},
		{Term: "gas", Key: "amenity", Value: "fuel"},
		{Term: "fuel", Key: "amenity", Value: "fuel"},
		{Term: "gasoline", Key: "amenity", Value: "fuel"},
		{Term: "hotel", Key: "tourism", Value: "hotel"},
		{Term: "hotels", Key: "tourism", Value: "hotel"},
		{Term: "bank", Key: "amenity", Value: "bank"},
		{Term: "banks", Key: "amenity", Value: "bank"},
		{Term: "supermarket", Key: "shop", Value: "supermarket"},
		{Term: "grocery", Key: "shop", Value: "supermarket"},
		{Term: "grocery store", Key: "shop", Value: "supermarket"},
		{Term: "groceries", Key: "shop", Value: "supermarket"},
		{Term: "bar", Key: "amenity", Value: "bar"},
		{Term: "bars", Key: "amenity", Value: "bar"},
		{Term: "pub", Key: "amenity", Value: "pub"},
		{Term: "pubs", Key: "amenity", Value: "pub"},
		{Term: "clinic", Key: "amenity", Value: "clinic"},
		{Term: "clinics", Key: "amenity", Value: "clinic"},
		{Term: "hospital", Key: "amenity", Value: "hospital"},
		{Term: "hospitals", Key: "amenity", Value: "hospital"},
		{Term: "dentist", Key: "amenity", Value: "dentist"},
		{Term: "hardware store", Key: "shop", Value: "hardware"},
		{Term: "laundromat", Key: "shop", Value: "laundry"},
	}
}

// LoadDictionary reads extra entries from a YAML file and prepends them to
// the built-in dictionary, so file entries win ties.
func LoadDictionary(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "category: read dictionary %s", path)
	}

	var extra []Entry
	if err := yaml.Unmarshal(data, &extra); err != nil {
		return nil, eris.Wrapf(err, "category: parse dictionary %s", path)
	}

	for _, e := range extra {
		if e.Term == "" || e.Key == "" || e.Value == "" {
			return nil, eris.Errorf("category: dictionary %s has an entry with empty term, key, or value", path)
		}
	}

	return append(extra, DefaultDictionary()...), nil
}
