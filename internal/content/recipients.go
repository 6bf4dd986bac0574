package content

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
)

// Recipients holds the recipientEmail field, which editors have stored either
// as one delimited string or as a list of addresses.
type Recipients struct {
	single string
	list   []string
	isList bool
}

// SingleRecipient builds a Recipients value from a delimited string.
func SingleRecipient(s string) Recipients {
	return Recipients{single: s}
}

// RecipientList builds a Recipients value from a list of addresses.
func RecipientList(addrs ...string) Recipients {
	return Recipients{list: append([]string{}, addrs...), isList: true}
}

// IsList reports whether the value was stored as a list.
func (r Recipients) IsList() bool { return r.isList }

// Normalize returns the usable addresses in order. Lists are trimmed and
// empty entries dropped; strings are first split on ';', ',' and newlines.
func (r Recipients) Normalize() []string {
	var parts []string
	if r.isList {
		parts = r.list
	} else {
		parts = strings.FieldsFunc(r.single, func(c rune) bool {
			return c == ';' || c == ',' || c == '\n'
		})
	}

	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// UnmarshalJSON accepts a string, an array of strings or null.
func (r *Recipients) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	switch {
	case len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")):
		*r = Recipients{}
		return nil
	case trimmed[0] == '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*r = SingleRecipient(s)
		return nil
	case trimmed[0] == '[':
		var raw []*string
		if err := json.Unmarshal(trimmed, &raw); err != nil {
			return errors.New("content: recipientEmail list must contain strings")
		}
		list := make([]string, 0, len(raw))
		for _, s := range raw {
			if s != nil {
				list = append(list, *s)
			}
		}
		*r = RecipientList(list...)
		return nil
	default:
		return errors.New("content: recipientEmail must be a string or a list of strings")
	}
}

// MarshalJSON writes the value back in the shape it was read in.
func (r Recipients) MarshalJSON() ([]byte, error) {
	if r.isList {
		return json.Marshal(r.list)
	}
	return json.Marshal(r.single)
}
