// Package messages loads the event's message catalog: keyed texts rendered
// with text/template, the button labels they refer to and the keyboard
// layouts used by every persona.
package messages

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"text/template"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/dragonfair/internal/conversation"
	"github.com/cory-johannsen/dragonfair/internal/game/dice"
	"github.com/cory-johannsen/dragonfair/internal/transport"
)

//go:embed default.yaml
var defaultCatalog []byte

// ErrUnknownMessage is returned for a persona/key pair the catalog lacks.
var ErrUnknownMessage = errors.New("unknown message")

// Entry is one keyed message.
type Entry struct {
	Text string `yaml:"text"`
	// Buttons are function keys shown as a reply keyboard.
	Buttons []string `yaml:"buttons"`
	// Inline are function keys shown as inline buttons; the callback data
	// is the key.
	Inline []string `yaml:"inline"`
	// Hero is the companion text sent to the hero's own channel.
	Hero string `yaml:"hero"`
	// Dice shows the dice keyboard.
	Dice bool `yaml:"dice"`
}

type file struct {
	Errors struct {
		Generic string `yaml:"generic"`
		Apology string `yaml:"apology"`
	} `yaml:"errors"`
	Cancel       string                      `yaml:"cancel"`
	QRProcessing string                      `yaml:"qr_processing"`
	Buttons      map[string]string           `yaml:"buttons"`
	Personas     map[string]map[string]Entry `yaml:"personas"`
}

// Catalog is a parsed, validated message catalog. It is safe for
// concurrent use.
type Catalog struct {
	f         file
	templates map[string]*template.Template
	byLabel   map[string]string
}

// Load reads the catalog at path, or the embedded default when path is
// empty.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Parse(defaultCatalog)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading message catalog: %w", err)
	}
	return Parse(data)
}

// Default returns the embedded catalog.
func Default() *Catalog {
	c, err := Parse(defaultCatalog)
	if err != nil {
		panic(fmt.Sprintf("embedded message catalog: %v", err))
	}
	return c
}

var funcs = template.FuncMap{
	"signed": func(n int) string {
		if n > 0 {
			return fmt.Sprintf("+%d", n)
		}
		return fmt.Sprintf("%d", n)
	},
}

// Parse decodes and validates a YAML catalog. Every template is compiled
// and every button key must have a label.
func Parse(data []byte) (*Catalog, error) {
	var f file
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decoding message catalog: %w", err)
	}
	c := &Catalog{f: f, templates: make(map[string]*template.Template), byLabel: make(map[string]string)}

	var errs []string
	if _, ok := f.Buttons["cancel"]; !ok {
		errs = append(errs, "buttons.cancel is required")
	}
	for key, label := range f.Buttons {
		n := normalize(label)
		if other, dup := c.byLabel[n]; dup {
			errs = append(errs, fmt.Sprintf("buttons %q and %q share a label", other, key))
		}
		c.byLabel[n] = key
	}
	for persona, entries := range f.Personas {
		for key, e := range entries {
			name := persona + "." + key
			for _, b := range append(append([]string(nil), e.Buttons...), e.Inline...) {
				if _, ok := f.Buttons[b]; !ok {
					errs = append(errs, fmt.Sprintf("%s: button %q has no label", name, b))
				}
			}
			for suffix, text := range map[string]string{"text": e.Text, "hero": e.Hero} {
				if text == "" {
					continue
				}
				tmpl, err := template.New(name + "." + suffix).Option("missingkey=error").Funcs(funcs).Parse(text)
				if err != nil {
					errs = append(errs, err.Error())
					continue
				}
				c.templates[name+"."+suffix] = tmpl
			}
		}
	}
	if len(errs) > 0 {
		sort.Strings(errs)
		return nil, fmt.Errorf("invalid message catalog: %s", strings.Join(errs, "; "))
	}
	return c, nil
}

// ErrorTexts returns the replies the conversation engine uses on failure.
func (c *Catalog) ErrorTexts() conversation.ErrorTexts {
	return conversation.ErrorTexts{Generic: c.f.Errors.Generic, Apology: c.f.Errors.Apology}
}

// CancelText is the reply to a cancelled conversation.
func (c *Catalog) CancelText() string { return c.f.Cancel }

// QRProcessing is the acknowledgement sent while a scan is decoded.
func (c *Catalog) QRProcessing() string { return c.f.QRProcessing }

// Label returns the label of a function key, or the key itself.
func (c *Catalog) Label(key string) string {
	if l, ok := c.f.Buttons[key]; ok {
		return l
	}
	return key
}

// Has reports whether persona defines key.
func (c *Catalog) Has(persona, key string) bool {
	_, ok := c.f.Personas[persona][key]
	return ok
}

func (c *Catalog) entry(persona, key string) (Entry, error) {
	e, ok := c.f.Personas[persona][key]
	if !ok {
		return Entry{}, fmt.Errorf("%w: %s.%s", ErrUnknownMessage, persona, key)
	}
	return e, nil
}

func (c *Catalog) render(name string, data any) (string, error) {
	tmpl, ok := c.templates[name]
	if !ok {
		return "", nil
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("rendering %s: %w", name, err)
	}
	return buf.String(), nil
}

// Text renders the text of persona.key.
func (c *Catalog) Text(persona, key string, data any) (string, error) {
	if _, err := c.entry(persona, key); err != nil {
		return "", err
	}
	return c.render(persona+"."+key+".text", data)
}

// HeroText renders the hero companion text of persona.key. It is empty
// when the entry has none.
func (c *Catalog) HeroText(persona, key string, data any) (string, error) {
	if _, err := c.entry(persona, key); err != nil {
		return "", err
	}
	return c.render(persona+"."+key+".hero", data)
}

// Message renders persona.key with its keyboard. An entry with neither
// buttons, inline buttons nor dice removes any keyboard shown.
func (c *Catalog) Message(persona, key string, data any) (transport.Message, error) {
	e, err := c.entry(persona, key)
	if err != nil {
		return transport.Message{}, err
	}
	text, err := c.render(persona+"."+key+".text", data)
	if err != nil {
		return transport.Message{}, err
	}
	msg := transport.Message{Text: text}
	switch {
	case e.Dice:
		msg.Keyboard = c.DiceKeyboard()
	case len(e.Buttons) > 0:
		msg.Keyboard = c.Layout(e.Buttons)
	case len(e.Inline) > 0:
		msg.Inline = c.InlineRows(e.Inline)
	default:
		msg.RemoveKeyboard = true
	}
	return msg, nil
}

// Layout arranges function keys as keyboard rows: two per row when there
// are more than two, one per row otherwise.
func (c *Catalog) Layout(keys []string) [][]string {
	per := 1
	if len(keys) > 2 {
		per = 2
	}
	var rows [][]string
	for i := 0; i < len(keys); i += per {
		end := min(i+per, len(keys))
		row := make([]string, 0, per)
		for _, k := range keys[i:end] {
			row = append(row, c.Label(k))
		}
		rows = append(rows, row)
	}
	return rows
}

// InlineRows lays out inline buttons one per row.
func (c *Catalog) InlineRows(keys []string) [][]transport.Button {
	rows := make([][]transport.Button, 0, len(keys))
	for _, k := range keys {
		rows = append(rows, []transport.Button{{Label: c.Label(k), Data: k}})
	}
	return rows
}

// DiceKeyboard is four rows of five faces followed by the cancel button.
func (c *Catalog) DiceKeyboard() [][]string {
	faces := dice.Faces()
	rows := make([][]string, 0, 5)
	for i := 0; i < len(faces); i += 5 {
		rows = append(rows, faces[i:i+5])
	}
	return append(rows, []string{c.Label("cancel")})
}

func normalize(s string) string {
	return cases.Fold().String(norm.NFC.String(strings.TrimSpace(s)))
}

// Key returns the function key an input selects: a callback's data when it
// names a known key, or the key whose label or name matches a text.
func (c *Catalog) Key(in transport.Input) (string, bool) {
	switch in.Kind {
	case transport.Callback:
		_, ok := c.f.Buttons[in.Text]
		return in.Text, ok
	case transport.Text:
		n := normalize(in.Text)
		if k, ok := c.byLabel[n]; ok {
			return k, true
		}
		for k := range c.f.Buttons {
			if normalize(k) == n {
				return k, true
			}
		}
	}
	return "", false
}

// Matcher matches inputs that select one of keys.
func (c *Catalog) Matcher(keys ...string) conversation.Matcher {
	want := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		want[k] = struct{}{}
	}
	return func(in transport.Input) bool {
		k, ok := c.Key(in)
		if !ok {
			return false
		}
		_, hit := want[k]
		return hit
	}
}
