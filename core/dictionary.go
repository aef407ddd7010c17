package core

import (
	"sort"
	"sync"
)

// Version is reported in the dictionary
const Version = "espgpio-0.3.0"

// Dictionary is the self description the host downloads with identify: the
// message table, firmware constants and enumerations, as JSON.
type Dictionary struct {
	mu            sync.RWMutex
	registry      *CommandRegistry
	constants     map[string]string
	enumerations  map[string][]string
	version       string
	buildVersions string
	cached        []byte
	cachedCount   int // registry size when cached was rendered
}

var globalDictionary = NewDictionary(globalRegistry)

func NewDictionary(registry *CommandRegistry) *Dictionary {
	return &Dictionary{
		registry:      registry,
		constants:     make(map[string]string),
		enumerations:  make(map[string][]string),
		version:       Version,
		buildVersions: "go-tinygo",
	}
}

// RegisterConstant adds a constant to the global dictionary
func RegisterConstant(name string, value interface{}) {
	globalDictionary.AddConstant(name, value)
}

// RegisterEnumeration adds an enumeration to the global dictionary
func RegisterEnumeration(name string, values []string) {
	globalDictionary.AddEnumeration(name, values)
}

func GetGlobalDictionary() *Dictionary {
	return globalDictionary
}

// AddConstant sets a constant and invalidates the cached JSON
func (d *Dictionary) AddConstant(name string, value interface{}) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.constants[name] = valueToString(value)
	d.cached = nil
}

// AddEnumeration sets an enumeration; the index of a value is its number and
// empty strings are holes
func (d *Dictionary) AddEnumeration(name string, values []string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.enumerations[name] = append([]string(nil), values...)
	d.cached = nil
}

// SetBuildVersions records the toolchain the firmware was built with
func (d *Dictionary) SetBuildVersions(versions string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.buildVersions = versions
	d.cached = nil
}

// BuildDictionary renders and caches the JSON. Call it once every message is
// registered so the first identify does not pay for it.
func (d *Dictionary) BuildDictionary() []byte {
	// Read the registry before taking our own lock
	commands, responses := d.registry.Messages()

	d.mu.Lock()
	defer d.mu.Unlock()
	d.cached = d.render(commands, responses)
	d.cachedCount = len(commands) + len(responses)
	DebugPrintln("[dict] built " + itoa(len(d.cached)) + " bytes")
	return d.cached
}

// Generate returns the dictionary JSON, rebuilding it when the registry grew
func (d *Dictionary) Generate() []byte {
	d.mu.RLock()
	cached, count := d.cached, d.cachedCount
	d.mu.RUnlock()
	if cached != nil && count == d.registry.Count() {
		return cached
	}
	return d.BuildDictionary()
}

// GetChunk returns a copy of count bytes at offset; past the end it is empty
func (d *Dictionary) GetChunk(offset uint32, count uint8) []byte {
	data := d.Generate()
	if offset >= uint32(len(data)) {
		return []byte{}
	}
	end := offset + uint32(count)
	if end > uint32(len(data)) {
		end = uint32(len(data))
	}
	return append([]byte(nil), data[offset:end]...)
}

// render builds the JSON by hand; reflection based encoding is not available
// on every target. The caller holds d.mu.
func (d *Dictionary) render(commands, responses []Command) []byte {
	out := make([]byte, 0, 2048)
	out = append(out, `{"version":`...)
	out = appendJSONString(out, d.version)
	out = append(out, `,"build_versions":`...)
	out = appendJSONString(out, d.buildVersions)

	out = append(out, `,"config":{`...)
	for i, name := range sortedKeys(d.constants) {
		if i > 0 {
			out = append(out, ',')
		}
		out = appendJSONString(out, name)
		out = append(out, ':')
		out = appendJSONString(out, d.constants[name])
	}

	out = append(out, `},"commands":`...)
	out = appendMessages(out, commands)
	out = append(out, `,"responses":`...)
	out = appendMessages(out, responses)

	if len(d.enumerations) > 0 {
		out = append(out, `,"enumerations":{`...)
		names := make([]string, 0, len(d.enumerations))
		for name := range d.enumerations {
			names = append(names, name)
		}
		sort.Strings(names)
		for i, name := range names {
			if i > 0 {
				out = append(out, ',')
			}
			out = appendJSONString(out, name)
			out = append(out, ":{"...)
			first := true
			for idx, value := range d.enumerations[name] {
				if value == "" {
					continue
				}
				if !first {
					out = append(out, ',')
				}
				out = appendJSONString(out, value)
				out = append(out, ':')
				out = append(out, itoa(idx)...)
				first = false
			}
			out = append(out, '}')
		}
		out = append(out, '}')
	}
	return append(out, '}')
}

func appendMessages(out []byte, msgs []Command) []byte {
	out = append(out, '{')
	for i := range msgs {
		if i > 0 {
			out = append(out, ',')
		}
		out = appendJSONString(out, msgs[i].Message())
		out = append(out, ':')
		out = append(out, utoa(uint32(msgs[i].ID))...)
	}
	return append(out, '}')
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
