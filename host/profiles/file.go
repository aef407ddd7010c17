package profiles

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

// Document is the JSON file form of a set of profiles:
//
//	{"default": "buttons", "profiles": {"buttons": {"pins": [0, 35], "mode": ["input"], "intr": "negedge"}}}
type Document struct {
	Default  string             `json:"default,omitempty"`
	Profiles map[string]Profile `json:"profiles"`
}

// LoadFile reads and checks a profile document
func LoadFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read profiles: %w", err)
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("unable to unmarshal profiles %s: %w", path, err)
	}
	for name, p := range doc.Profiles {
		if _, err := p.Config(); err != nil {
			return nil, fmt.Errorf("profile %q in %s: %w", name, path, err)
		}
	}
	if doc.Default != "" {
		if _, ok := doc.Profiles[doc.Default]; !ok {
			return nil, fmt.Errorf("default profile %q not defined in %s", doc.Default, path)
		}
	}
	return &doc, nil
}

// Import copies every profile of doc into s, then its default
func Import(s Store, doc *Document) error {
	names := make([]string, 0, len(doc.Profiles))
	for name := range doc.Profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := s.PutProfile(name, doc.Profiles[name]); err != nil {
			return err
		}
	}
	if doc.Default != "" {
		return s.PutDefaultProfile(doc.Default)
	}
	return nil
}
