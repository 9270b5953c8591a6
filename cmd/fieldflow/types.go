/*
 * Copyright (c) 2025-present unTill Software Development Group B.V.
 */

package main

import (
	"github.com/voedger/fieldflow/pkg/engine"
	"github.com/voedger/fieldflow/pkg/fielddef"
)

type fieldflowParams struct {
	ConfigFile string
	DataDir    string
}

type config struct {
	MaxArraySize       int    `yaml:"maxArraySize"`
	Parallelism        int    `yaml:"parallelism"`
	FormulaCacheSize   int    `yaml:"formulaCacheSize"`
	FieldMetaCacheSize int    `yaml:"fieldMetaCacheSize"`
	StorageCacheBytes  int    `yaml:"storageCacheBytes"`
	DataDir            string `yaml:"dataDir"`
}

func (c config) engine() engine.Config {
	return engine.Config{
		MaxArraySize:     c.MaxArraySize,
		Parallelism:      c.Parallelism,
		FormulaCacheSize: c.FormulaCacheSize,
	}
}

// Scenario file: tables with fields, records and steps with expectations.
//
// Field definitions use JSON field names of fielddef.Field, link cells and
// record references are record keys of the scenario
type scenario struct {
	Tables  []scenarioTable  `yaml:"tables"`
	Records []scenarioRecord `yaml:"records"`
	Expect  []expectation    `yaml:"expect"`
	Steps   []scenarioStep   `yaml:"steps"`
}

type scenarioTable struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`

	// First field is primary
	Fields []map[string]interface{} `yaml:"fields"`
}

type scenarioRecord struct {
	Table string                 `yaml:"table"`
	Key   string                 `yaml:"key"`
	Cells map[string]interface{} `yaml:"cells"`
}

type scenarioStep struct {
	Name   string                 `yaml:"name"`
	Op     string                 `yaml:"op"`
	Table  string                 `yaml:"table"`
	Key    string                 `yaml:"key"`
	Cells  map[string]interface{} `yaml:"cells"`
	Field  map[string]interface{} `yaml:"field"`

	FieldID string   `yaml:"fieldId"`
	Targets []string `yaml:"targets"`
	Old     string   `yaml:"old"`
	New     string   `yaml:"new"`

	Expect []expectation `yaml:"expect"`
}

type expectation struct {
	Table    string      `yaml:"table"`
	Key      string      `yaml:"key"`
	Field    string      `yaml:"field"`
	Value    interface{} `yaml:"value"`
	HasError *bool       `yaml:"hasError"`
}

// Applies scenario to engine
type runner struct {
	engine engine.IEngine
	keys   map[string]fielddef.RecordID

	// definitions of deleted fields for restore
	deleted map[fielddef.FieldID]*fielddef.Field

	failed int
}
