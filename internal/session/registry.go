package session

import (
	"sort"
	"strings"
)

var registry = map[string]Provider{}

func Register(p Provider) {
	registry[strings.ToLower(p.Name())] = p
}

func Get(name string) (Provider, bool) {
	p, ok := registry[strings.ToLower(name)]
	return p, ok
}

// Names lists registered providers, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
