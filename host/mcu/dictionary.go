package mcu

import (
	"fmt"
	"sort"
	"strings"
)

// Message is one dictionary entry
type Message struct {
	ID     int
	Name   string
	Format string // e.g. "oid=%c value=%c", empty for no arguments
}

// Dictionary maps message names to IDs. The firmware sends it as text, one
// "name format" line per message in ID order, followed by "#NAME VALUE"
// constant lines.
type Dictionary struct {
	Messages  []Message
	Constants map[string]string
	byName    map[string]int
}

// ParseDictionary parses the text dictionary returned by identify
func ParseDictionary(text string) (*Dictionary, error) {
	d := &Dictionary{
		Constants: make(map[string]string),
		byName:    make(map[string]int),
	}

	for i, line := range strings.Split(strings.TrimRight(text, "\n"), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			return nil, fmt.Errorf("dictionary line %d is empty", i)
		}

		if strings.HasPrefix(line, "#") {
			name, value, _ := strings.Cut(line[1:], " ")
			d.Constants[name] = value
			continue
		}
		if len(d.Constants) > 0 {
			return nil, fmt.Errorf("dictionary line %d: message after constants", i)
		}

		name, format, _ := strings.Cut(line, " ")
		if _, dup := d.byName[name]; dup {
			return nil, fmt.Errorf("dictionary message %q listed twice", name)
		}

		id := len(d.Messages)
		d.byName[name] = id
		d.Messages = append(d.Messages, Message{ID: id, Name: name, Format: format})
	}

	return d, nil
}

// Lookup returns the message called name
func (d *Dictionary) Lookup(name string) (Message, bool) {
	id, ok := d.byName[name]
	if !ok {
		return Message{}, false
	}
	return d.Messages[id], true
}

// Constant returns a firmware constant
func (d *Dictionary) Constant(name string) (string, bool) {
	v, ok := d.Constants[name]
	return v, ok
}

// String renders the dictionary one message per line, then the constants
func (d *Dictionary) String() string {
	var b strings.Builder
	for _, m := range d.Messages {
		fmt.Fprintf(&b, "  [%d] %s", m.ID, m.Name)
		if m.Format != "" {
			b.WriteString(" " + m.Format)
		}
		b.WriteString("\n")
	}
	for _, name := range sortedKeys(d.Constants) {
		fmt.Fprintf(&b, "  %s = %s\n", name, d.Constants[name])
	}
	return b.String()
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
