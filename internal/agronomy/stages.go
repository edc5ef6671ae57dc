package agronomy

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Stage is irrigation guidance for one growth stage.
type Stage struct {
	Stage    string `toml:"stage"`
	Guidance string `toml:"guidance"`
}

// Stages is an ordered list of growth stages. It marshals to a JSON object
// keyed by stage name, preserving stage order.
type Stages []Stage

// MarshalJSON writes the stages as an ordered JSON object.
func (s Stages) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, st := range s {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(st.Stage)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(st.Guidance)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads an object written by MarshalJSON, keeping key order.
func (s *Stages) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*s = nil
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("stages: expected object, got %v", tok)
	}

	out := Stages{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("stages: expected key, got %v", tok)
		}
		var guidance string
		if err := dec.Decode(&guidance); err != nil {
			return fmt.Errorf("stages: %s: %w", key, err)
		}
		out = append(out, Stage{Stage: key, Guidance: guidance})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}

	*s = out
	return nil
}

// Guidance returns the guidance for a named stage.
func (s Stages) Guidance(stage string) (string, bool) {
	for _, st := range s {
		if st.Stage == stage {
			return st.Guidance, true
		}
	}
	return "", false
}
