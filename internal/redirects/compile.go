// Package redirects compiles the site's redirect mapping file into the
// permanent routing rules served ahead of every other route.
package redirects

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// MatcherQuery is the only matcher type the mapping file can express.
const MatcherQuery = "query"

// keySep separates the source from the serialized matchers in a dedupe key.
const keySep = "\x00"

// Mapping is one entry of the redirect mapping file.
type Mapping struct {
	Source      string       `json:"source"`
	Destination string       `json:"destination"`
	Query       *QueryParams `json:"query,omitempty"`
}

// QueryParam is a single required query parameter.
type QueryParam struct {
	Key   string
	Value string
}

// QueryParams preserves the key order of the JSON object it was decoded from.
type QueryParams []QueryParam

// UnmarshalJSON decodes an object token by token so key order survives.
// A repeated key keeps its first position and its last value.
func (q *QueryParams) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return errors.New("redirects: query must be an object")
	}

	params := QueryParams{}
	index := make(map[string]int)
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := keyTok.(string)

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return err
		}
		value, err := scalarString(raw)
		if err != nil {
			return fmt.Errorf("redirects: query %q: %w", key, err)
		}

		if i, seen := index[key]; seen {
			params[i].Value = value
			continue
		}
		index[key] = len(params)
		params = append(params, QueryParam{Key: key, Value: value})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*q = params
	return nil
}

// MarshalJSON writes the params back as an object in their original order.
func (q QueryParams) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, p := range q {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, _ := json.Marshal(p.Key)
		value, _ := json.Marshal(p.Value)
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// scalarString renders strings as-is and other scalars by their JSON text.
func scalarString(raw json.RawMessage) (string, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return "", nil
	}
	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return "", err
		}
		return s, nil
	case '{', '[':
		return "", errors.New("value must be a scalar")
	case 'n':
		return "", nil
	default:
		return string(trimmed), nil
	}
}

// Matcher constrains a rule to requests carrying a query parameter.
type Matcher struct {
	Type  string `json:"type"`
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Rule is a compiled permanent redirect.
// Matchers is nil when the mapping had no query and empty when it had "{}".
type Rule struct {
	Source      string    `json:"source"`
	Destination string    `json:"destination"`
	Permanent   bool      `json:"permanent"`
	Matchers    []Matcher `json:"matchers,omitempty"`
}

type ruleJSON struct {
	Source      string     `json:"source"`
	Destination string     `json:"destination"`
	Permanent   bool       `json:"permanent"`
	Matchers    *[]Matcher `json:"matchers,omitempty"`
}

// MarshalJSON omits matchers for a rule without a query and writes "[]" for
// one compiled from an empty query.
func (r Rule) MarshalJSON() ([]byte, error) {
	out := ruleJSON{Source: r.Source, Destination: r.Destination, Permanent: r.Permanent}
	if r.Matchers != nil {
		out.Matchers = &r.Matchers
	}
	return json.Marshal(out)
}

// Compile drops incomplete mappings, converts query constraints to matchers
// and removes duplicate (source, matchers) pairs, keeping the first one seen.
func Compile(mappings []Mapping) []Rule {
	seen := make(map[string]struct{}, len(mappings))
	rules := make([]Rule, 0, len(mappings))

	for _, m := range mappings {
		if m.Source == "" || m.Destination == "" {
			continue
		}

		var matchers []Matcher
		if m.Query != nil {
			matchers = make([]Matcher, 0, len(*m.Query))
			for _, p := range *m.Query {
				matchers = append(matchers, Matcher{Type: MatcherQuery, Key: p.Key, Value: p.Value})
			}
		}

		key := dedupeKey(m.Source, matchers)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		rules = append(rules, Rule{
			Source:      m.Source,
			Destination: m.Destination,
			Permanent:   true,
			Matchers:    matchers,
		})
	}
	return rules
}

// dedupeKey identifies a rule by source and serialized matchers. An empty
// matcher list serializes to "" so "no query" and "{}" collide.
func dedupeKey(source string, matchers []Matcher) string {
	if len(matchers) == 0 {
		return source + keySep
	}
	data, err := json.Marshal(matchers)
	if err != nil {
		return source + keySep
	}
	return source + keySep + string(data)
}

// EntryError reports a mapping entry that was skipped because it is not a
// mapping object (wrong field types, a non-scalar query value, ...).
type EntryError struct {
	Index int
	Err   error
}

func (e *EntryError) Error() string {
	return fmt.Sprintf("redirects: entry %d: %v", e.Index, e.Err)
}

func (e *EntryError) Unwrap() error { return e.Err }

// Decode parses a mapping file. The file must hold a JSON array; an error is
// returned only when it does not. Entries that cannot be decoded are left out
// of mappings and reported in skipped. Callers that must not fail use Parse.
func Decode(data []byte) (mappings []Mapping, skipped []*EntryError, err error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil, nil
	}
	var entries []json.RawMessage
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, nil, fmt.Errorf("redirects: decode mappings: %w", err)
	}

	mappings = make([]Mapping, 0, len(entries))
	for i, raw := range entries {
		var m Mapping
		if err := json.Unmarshal(raw, &m); err != nil {
			skipped = append(skipped, &EntryError{Index: i, Err: err})
			continue
		}
		mappings = append(mappings, m)
	}
	return mappings, skipped, nil
}

// Parse decodes and compiles a mapping file. Input that is not a JSON array
// yields no rules; undecodable entries are dropped.
func Parse(data []byte) []Rule {
	mappings, _, err := Decode(data)
	if err != nil {
		return []Rule{}
	}
	return Compile(mappings)
}

// String renders the rule as "source [k=v&...] -> destination".
func (r Rule) String() string {
	var b strings.Builder
	b.WriteString(r.Source)
	if len(r.Matchers) > 0 {
		b.WriteString(" [")
		for i, m := range r.Matchers {
			if i > 0 {
				b.WriteByte('&')
			}
			b.WriteString(m.Key)
			b.WriteByte('=')
			b.WriteString(m.Value)
		}
		b.WriteByte(']')
	}
	b.WriteString(" -> ")
	b.WriteString(r.Destination)
	return b.String()
}
