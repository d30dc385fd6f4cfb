// Package driver normalises a controller-delivered driver descriptor
// (nested categories → capabilities → commands → codes) into a flat
// catalog keyed by stable reference IDs (spec §4.4).
package driver

import (
	"encoding/json"
	"strconv"
	"strings"
)

// StateType mirrors the primitive type tag carried on the wire.
type StateType string

const (
	StateTypeString  StateType = "string"
	StateTypeNumber  StateType = "number"
	StateTypeBoolean StateType = "boolean"
)

// State is a normalised state record (spec §3 "State record").
type State struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Type           StateType `json:"type"`
	Category       string    `json:"category"`
	Value          string    `json:"value"`
	NormalizedValue string   `json:"normalizedValue"`
	IsCustomState  bool      `json:"isCustomState,omitempty"`
	CustomData     any       `json:"customData,omitempty"`
}

// Coerce computes NormalizedValue from Value according to Type: a
// number is reformatted through its parsed float64 (so e.g. "1.0"
// normalises to "1"), everything else is the raw string (spec §3
// "normalizedValue is ... coerced to a number for type=number", spec
// §9 "Dynamic typing"). A number-typed value that fails to parse falls
// back to the raw string rather than dropping it.
func (s *State) Coerce() {
	if s.Type == StateTypeNumber {
		if f, err := strconv.ParseFloat(s.Value, 64); err == nil {
			s.NormalizedValue = strconv.FormatFloat(f, 'f', -1, 64)
			return
		}
	}
	s.NormalizedValue = s.Value
}

// Param is one command parameter. Dynamic params reference a State by
// ID (StateRef); static params carry Type/Constraints only.
type Param struct {
	Name        string   `json:"name"`
	Dynamic     bool     `json:"dynamic"`
	StateRef    string   `json:"stateRef,omitempty"`
	Type        string   `json:"type,omitempty"`
	Constraints []string `json:"constraints,omitempty"`
}

// Command is a normalised command record, emitted once per code
// (spec §4.4).
type Command struct {
	ID         string           `json:"id"`
	Name       string           `json:"name"`
	Category   string           `json:"category"`
	Capability string           `json:"capability"`
	Params     map[string]Param `json:"params"`
	States     map[string]*State `json:"-"`
}

// Category is the flat unit produced per input category
// (spec §4.4: "{categoryRefId → {name, refId, states, commands}}").
type Category struct {
	Name     string
	RefID    string
	States   map[string]*State
	Commands []*Command
}

// --- Wire shapes -----------------------------------------------------

type wireDescriptor struct {
	Categories []wireCategory `json:"categories"`
}

type wireCategory struct {
	Name         string            `json:"name"`
	ReferenceID  string            `json:"reference_id"`
	States       []wireState       `json:"states"`
	Capabilities []wireCapability  `json:"capabilities"`
}

type wireState struct {
	ReferenceID string `json:"reference_id"`
	Name        string `json:"name"`
	Type        string `json:"type"`
}

type wireCapability struct {
	Name     string        `json:"name"`
	Commands []wireCommand `json:"commands"`
}

type wireCommand struct {
	ReferenceID string     `json:"reference_id"`
	Name        string     `json:"name"`
	Codes       []wireCode `json:"codes"`
}

type wireCode struct {
	StateReferences []wireStateRef `json:"state_references"`
	Parameters      []wireParam    `json:"parameters"`
}

type wireStateRef struct {
	Name        string `json:"name"`
	ReferenceID string `json:"reference_id"`
}

type wireParam struct {
	Name        string   `json:"name"`
	Type        string   `json:"type"`
	Constraints []string `json:"constraints"`
}

// Normalize parses a raw driver descriptor and produces the flat
// per-category map. Enumeration order follows input order; duplicate
// reference IDs overwrite — last write wins (spec §4.4).
func Normalize(raw []byte) (map[string]*Category, error) {
	var desc wireDescriptor
	if err := json.Unmarshal(raw, &desc); err != nil {
		return nil, err
	}

	result := make(map[string]*Category, len(desc.Categories))

	for _, wc := range desc.Categories {
		cat := &Category{
			Name:   wc.Name,
			RefID:  wc.ReferenceID,
			States: make(map[string]*State, len(wc.States)),
		}

		for _, ws := range wc.States {
			st := &State{
				ID:       ws.ReferenceID,
				Name:     ws.Name,
				Type:     StateType(strings.ToLower(ws.Type)),
				Category: wc.ReferenceID,
			}
			st.Coerce()
			cat.States[st.ID] = st
		}

		for _, cap := range wc.Capabilities {
			for _, wcmd := range cap.Commands {
				for _, code := range wcmd.Codes {
					cmd := &Command{
						ID:         wcmd.ReferenceID,
						Name:       wcmd.Name,
						Category:   wc.ReferenceID,
						Capability: cap.Name,
						Params:     make(map[string]Param),
						States:     make(map[string]*State),
					}

					for _, ref := range code.StateReferences {
						cmd.Params[ref.Name] = Param{Name: ref.Name, Dynamic: true, StateRef: ref.ReferenceID}
						if st, ok := cat.States[ref.ReferenceID]; ok {
							cmd.States[ref.ReferenceID] = st
						}
					}
					for _, p := range code.Parameters {
						cmd.Params[p.Name] = Param{Name: p.Name, Type: p.Type, Constraints: p.Constraints}
					}

					cat.Commands = append(cat.Commands, cmd)
				}
			}
		}

		result[cat.RefID] = cat
	}

	return result, nil
}
