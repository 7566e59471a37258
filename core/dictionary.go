package core

import (
	"sync"
)

// Version is reported to the host as the VERSION constant
const Version = "busport-0.1.0"

// Constant represents a firmware constant exposed to the host
type Constant struct {
	Name  string
	Value string
}

// Dictionary manages the constants sent to the host after the message list.
// Each constant is one "#NAME VALUE" line, sorted by name.
type Dictionary struct {
	mu        sync.RWMutex
	constants map[string]*Constant
	cached    string // Rendered constant lines
}

var globalDictionary = NewDictionary()

// NewDictionary creates a dictionary holding only VERSION
func NewDictionary() *Dictionary {
	d := &Dictionary{constants: make(map[string]*Constant)}
	d.AddConstant("VERSION", Version)
	return d
}

// RegisterConstant registers a constant in the global dictionary
func RegisterConstant(name string, value string) {
	globalDictionary.AddConstant(name, value)
}

// RegisterConstantUint registers a numeric constant in the global dictionary
func RegisterConstantUint(name string, value uint32) {
	globalDictionary.AddConstant(name, utoa(value))
}

// AddConstant adds or replaces a constant.
// Names must not contain spaces; the value runs to the end of the line.
func (d *Dictionary) AddConstant(name string, value string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.constants[name] = &Constant{Name: name, Value: value}
	d.render()
}

// Constant returns the value of a constant
func (d *Dictionary) Constant(name string) (string, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	c, ok := d.constants[name]
	if !ok {
		return "", false
	}
	return c.Value, true
}

// Text returns the constant lines
func (d *Dictionary) Text() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.cached
}

// render rebuilds the cached text (caller must hold lock)
func (d *Dictionary) render() {
	names := make([]string, 0, len(d.constants))
	for name := range d.constants {
		names = append(names, name)
	}
	// Simple insertion sort for embedded (no sort package)
	for i := 1; i < len(names); i++ {
		for j := i; j > 0 && names[j-1] > names[j]; j-- {
			names[j-1], names[j] = names[j], names[j-1]
		}
	}

	text := ""
	for _, name := range names {
		text += "#" + name + " " + d.constants[name].Value + "\n"
	}
	d.cached = text
}

// DictionaryText is what identify serves: the message list from the command
// registry followed by the constant lines
func DictionaryText() string {
	return globalRegistry.GetDictionary() + globalDictionary.Text()
}
