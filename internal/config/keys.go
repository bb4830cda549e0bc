package config

import (
	"fmt"
	"os"
	"sort"
	"strconv"
)

// Kind is the value type a config key accepts on the command line.
type Kind string

const (
	KindString Kind = "string"
	KindInt    Kind = "integer"
	KindBool   Kind = "boolean"
)

// Field describes one settable key. The set of keys and their kinds come
// from the defaults, so a key exists here exactly when Config has a field
// for it.
type Field struct {
	Key     string
	Kind    Kind
	Default any
	// Env names the variable that overrides the file value, if any.
	Env    string
	Secret bool
}

var envOverrides = map[string]string{
	"backend.base_url": "HRASSIST_BASE_URL",
	"telegram.token":   "TELEGRAM_BOT_TOKEN",
}

var secretKeys = map[string]bool{
	"telegram.token": true,
}

// Fields lists every config key, sorted.
func Fields() []Field {
	m, err := ToMap(Defaults())
	if err != nil {
		// Config is plain strings, ints and bools; marshaling cannot fail.
		panic(err)
	}
	flat := Flatten(m)

	fields := make([]Field, 0, len(flat))
	for key, def := range flat {
		f := Field{Key: key, Default: def, Env: envOverrides[key], Secret: secretKeys[key]}
		switch def.(type) {
		case bool:
			f.Kind = KindBool
		case float64:
			f.Kind = KindInt
		default:
			f.Kind = KindString
		}
		fields = append(fields, f)
	}
	sort.Slice(fields, func(i, j int) bool { return fields[i].Key < fields[j].Key })
	return fields
}

// LookupField returns the field for key.
func LookupField(key string) (Field, bool) {
	for _, f := range Fields() {
		if f.Key == key {
			return f, true
		}
	}
	return Field{}, false
}

// Parse converts a command-line value to the field's JSON type. Strings are
// taken verbatim, so "5001" stays a string for a URL key.
func (f Field) Parse(raw string) (any, error) {
	switch f.Kind {
	case KindInt:
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("%s expects an integer, got %q", f.Key, raw)
		}
		return n, nil
	case KindBool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("%s expects true or false, got %q", f.Key, raw)
		}
		return b, nil
	default:
		return raw, nil
	}
}

// Mask hides all but the last four characters of a secret value.
func (f Field) Mask(v any) any {
	s, ok := v.(string)
	if !f.Secret || !ok || s == "" {
		return v
	}
	if len(s) <= 4 {
		return "***" + s
	}
	return "***" + s[len(s)-4:]
}

// Source says where an effective value came from.
type Source string

const (
	SourceDefault Source = "default"
	SourceFile    Source = "file"
	SourceEnv     Source = "env"
)

// Entry is one key of a loaded config alongside its default.
type Entry struct {
	Field
	Value  any
	Source Source
}

// Describe reports every key of cfg with its default and where the value
// came from. Secret values and defaults are masked when mask is set.
func Describe(cfg *Config, mask bool) ([]Entry, error) {
	m, err := ToMap(cfg)
	if err != nil {
		return nil, err
	}
	values := Flatten(m)

	fields := Fields()
	entries := make([]Entry, 0, len(fields))
	for _, f := range fields {
		e := Entry{Field: f, Value: values[f.Key], Source: SourceDefault}
		switch {
		case f.Env != "" && os.Getenv(f.Env) != "":
			e.Source = SourceEnv
		case e.Value != f.Default:
			e.Source = SourceFile
		}
		if mask {
			e.Value = f.Mask(e.Value)
			e.Default = f.Mask(e.Default)
		}
		entries = append(entries, e)
	}
	return entries, nil
}
