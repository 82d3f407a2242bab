package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Int decodes from a JSON number or a numeric string. The backend sends ids,
// counts and permission flags either way depending on the endpoint.
type Int int

func (n *Int) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*n = 0
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*n = 0
			return nil
		}
		v, err := strconv.Atoi(s)
		if err != nil {
			return fmt.Errorf("invalid integer %q", s)
		}
		*n = Int(v)
		return nil
	}
	var v json.Number
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	i, err := strconv.Atoi(v.String())
	if err != nil {
		return fmt.Errorf("invalid integer %s", v)
	}
	*n = Int(i)
	return nil
}

func (n Int) String() string {
	return strconv.Itoa(int(n))
}

// Flag is a permission flag. Only the JSON number 1 grants; any other number
// keeps its value for validation, and anything else (strings, booleans, null)
// decodes to 0 instead of failing the whole payload.
type Flag int

func (f *Flag) UnmarshalJSON(data []byte) error {
	*f = 0
	data = bytes.TrimSpace(data)
	if len(data) == 0 || (data[0] != '-' && (data[0] < '0' || data[0] > '9')) {
		return nil
	}
	v, err := strconv.ParseFloat(string(data), 64)
	if err != nil || v != float64(int(v)) {
		return nil
	}
	*f = Flag(int(v))
	return nil
}
