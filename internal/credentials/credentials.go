// Package credentials reads the JSON credential object bankpull receives on
// standard input.
package credentials

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
)

var (
	// ErrNoInput is returned when stdin is empty.
	ErrNoInput = errors.New("no input provided")
	// ErrInvalidInput is returned when stdin is not a single JSON object.
	ErrInvalidInput = errors.New("invalid JSON input")
)

// Credentials holds the optional username/password pair plus any other
// scalar keys, which are forwarded to the backend as strings. Values of any
// other shape are ignored: the object itself is always accepted.
type Credentials struct {
	Username *string
	Password *string
	Extra    map[string]string
}

// Read decodes a single JSON object from r.
func Read(r io.Reader) (Credentials, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Credentials{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if len(data) == 0 {
		return Credentials{}, ErrNoInput
	}
	return Parse(data)
}

// Parse decodes data as a credentials object.
func Parse(data []byte) (Credentials, error) {
	var raw map[string]json.RawMessage
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&raw); err != nil {
		return Credentials{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if dec.More() {
		return Credentials{}, fmt.Errorf("%w: trailing data after object", ErrInvalidInput)
	}
	if raw == nil {
		return Credentials{}, fmt.Errorf("%w: expected an object", ErrInvalidInput)
	}
	c := Credentials{Extra: map[string]string{}}
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if bytes.Equal(bytes.TrimSpace(raw[k]), []byte("null")) {
			continue
		}
		var s string
		isString := json.Unmarshal(raw[k], &s) == nil
		switch k {
		case "username":
			if isString {
				c.Username = &s
			}
		case "password":
			if isString {
				c.Password = &s
			}
		default:
			if v, ok := scalarString(raw[k]); ok {
				c.Extra[k] = v
			}
		}
	}
	return c, nil
}

// scalarString renders a JSON string, number or boolean as a config value.
// Null, arrays and objects have no string form.
func scalarString(v json.RawMessage) (string, bool) {
	var s string
	if json.Unmarshal(v, &s) == nil {
		return s, true
	}
	var n json.Number
	if json.Unmarshal(v, &n) == nil {
		return n.String(), true
	}
	var b bool
	if json.Unmarshal(v, &b) == nil {
		return strconv.FormatBool(b), true
	}
	return "", false
}

// BackendConfig builds the module config: extra keys first, then login,
// username and password, which always win.
func (c Credentials) BackendConfig() map[string]string {
	cfg := make(map[string]string, len(c.Extra)+3)
	for k, v := range c.Extra {
		cfg[k] = v
	}
	if c.Username != nil {
		cfg["login"] = *c.Username
		cfg["username"] = *c.Username
	}
	if c.Password != nil {
		cfg["password"] = *c.Password
	}
	return cfg
}
