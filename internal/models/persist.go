package models

import (
	"encoding/json"
	"fmt"

	"github.com/KaramelBytes/automl-cli/internal/artifacts"
)

type envelope struct {
	Name   string          `json:"name"`
	Params Params          `json:"params"`
	State  json.RawMessage `json:"state"`
}

// Save writes a fitted regressor with the params it was built from.
func Save(path string, reg Regressor, p Params) error {
	state, err := json.Marshal(reg)
	if err != nil {
		return fmt.Errorf("encode %s: %w", reg.Name(), err)
	}
	return artifacts.WriteJSON(path, envelope{Name: reg.Name(), Params: p, State: state})
}

// Load reads a regressor written by Save.
func Load(path string) (Regressor, Params, error) {
	var env envelope
	if err := artifacts.ReadJSON(path, &env); err != nil {
		return nil, Params{}, err
	}
	reg, err := New(env.Name, env.Params)
	if err != nil {
		return nil, Params{}, err
	}
	if err := json.Unmarshal(env.State, reg); err != nil {
		return nil, Params{}, fmt.Errorf("decode %s state: %w", env.Name, err)
	}
	return reg, env.Params, nil
}
