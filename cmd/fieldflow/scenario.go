/*
 * Copyright (c) 2025-present unTill Software Development Group B.V.
 */

package main

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/untillpro/goutils/logger"
	"gopkg.in/yaml.v2"

	"github.com/voedger/fieldflow/pkg/engine"
	"github.com/voedger/fieldflow/pkg/fielddef"
)

func readScenario(path string) (*scenario, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	s := &scenario{}
	if err := yaml.UnmarshalStrict(content, s); err != nil {
		return nil, fmt.Errorf("scenario %s: %w", path, err)
	}
	return s, nil
}

// Converts yaml value to value which may be marshaled to JSON
func jsonable(v interface{}) interface{} {
	switch x := v.(type) {
	case map[interface{}]interface{}:
		m := make(map[string]interface{}, len(x))
		for k, v := range x {
			m[fmt.Sprint(k)] = jsonable(v)
		}
		return m
	case map[string]interface{}:
		m := make(map[string]interface{}, len(x))
		for k, v := range x {
			m[k] = jsonable(v)
		}
		return m
	case []interface{}:
		l := make([]interface{}, len(x))
		for i, v := range x {
			l[i] = jsonable(v)
		}
		return l
	}
	return v
}

// Builds field from yaml definition through field JSON form
func parseField(def map[string]interface{}, table fielddef.TableID) (*fielddef.Field, error) {
	data, err := json.Marshal(jsonable(def))
	if err != nil {
		return nil, err
	}
	f := &fielddef.Field{}
	if err := json.Unmarshal(data, f); err != nil {
		return nil, err
	}
	if f.Table == fielddef.NullTableID {
		f.Table = table
	}
	return f, nil
}

func newRunner(e engine.IEngine) *runner {
	return &runner{
		engine:  e,
		keys:    make(map[string]fielddef.RecordID),
		deleted: make(map[fielddef.FieldID]*fielddef.Field),
	}
}

// Creates tables and their fields. First field of the table is primary
func (r *runner) define(ctx context.Context, s *scenario, out io.Writer) error {
	for _, t := range s.Tables {
		if len(t.Fields) == 0 {
			return fielddef.ErrInvalid("table «%s» has no fields", t.ID)
		}
		id := fielddef.TableID(t.ID)
		primary, err := parseField(t.Fields[0], id)
		if err != nil {
			return fielddef.EnrichError(err, "table «%s»", t.ID)
		}
		if _, err := r.engine.CreateTable(ctx, &fielddef.Table{ID: id, Name: t.Name}, primary); err != nil {
			return err
		}
		fmt.Fprintf(out, "table %s (%s)\n", t.ID, t.Name)
	}
	for _, t := range s.Tables {
		for _, def := range t.Fields[1:] {
			f, err := parseField(def, fielddef.TableID(t.ID))
			if err != nil {
				return fielddef.EnrichError(err, "table «%s»", t.ID)
			}
			if _, err := r.engine.CreateField(ctx, f); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *runner) record(key string) (fielddef.RecordID, error) {
	id, ok := r.keys[key]
	if !ok {
		return fielddef.NullRecordID, fielddef.ErrNotFound("record key «%s»", key)
	}
	return id, nil
}

// Converts scenario cells to engine cells. Link cells hold record keys
func (r *runner) cells(ctx context.Context, cells map[string]interface{}) (map[fielddef.FieldID]any, error) {
	res := make(map[fielddef.FieldID]any, len(cells))
	for name, v := range cells {
		id := fielddef.FieldID(name)
		f, err := r.engine.Field(ctx, id)
		if err != nil {
			return nil, err
		}
		if f.Kind != fielddef.FieldKind_Link {
			res[id] = jsonable(v)
			continue
		}
		var targets []fielddef.RecordID
		for _, k := range fielddef.AsList(jsonable(v)) {
			t, err := r.record(fielddef.ToText(k))
			if err != nil {
				return nil, err
			}
			targets = append(targets, t)
		}
		res[id] = targets
	}
	return res, nil
}

func (r *runner) create(ctx context.Context, rec scenarioRecord) error {
	cells, err := r.cells(ctx, rec.Cells)
	if err != nil {
		return err
	}
	created, err := r.engine.CreateRecord(ctx, fielddef.TableID(rec.Table), cells)
	if err != nil {
		return err
	}
	if rec.Key != "" {
		r.keys[rec.Key] = created.ID
	}
	return nil
}

func (r *runner) step(ctx context.Context, s scenarioStep) error {
	table := fielddef.TableID(s.Table)
	switch s.Op {
	case op_Create:
		return r.create(ctx, scenarioRecord{Table: s.Table, Key: s.Key, Cells: s.Cells})
	case op_Update:
		id, err := r.record(s.Key)
		if err != nil {
			return err
		}
		cells, err := r.cells(ctx, s.Cells)
		if err != nil {
			return err
		}
		_, err = r.engine.UpdateRecord(ctx, table, id, cells)
		return err
	case op_Delete:
		id, err := r.record(s.Key)
		if err != nil {
			return err
		}
		return r.engine.DeleteRecord(ctx, table, id)
	case op_Link:
		id, err := r.record(s.Key)
		if err != nil {
			return err
		}
		targets := make([]fielddef.RecordID, 0, len(s.Targets))
		for _, k := range s.Targets {
			t, err := r.record(k)
			if err != nil {
				return err
			}
			targets = append(targets, t)
		}
		return r.engine.SetLinks(ctx, fielddef.FieldID(s.FieldID), id, targets)
	case op_CreateField, op_ConvertField:
		f, err := parseField(s.Field, table)
		if err != nil {
			return err
		}
		if s.Op == op_CreateField {
			_, err = r.engine.CreateField(ctx, f)
		} else {
			_, err = r.engine.ConvertField(ctx, f)
		}
		return err
	case op_DeleteField:
		id := fielddef.FieldID(s.FieldID)
		f, err := r.engine.Field(ctx, id)
		if err != nil {
			return err
		}
		if err := r.engine.DeleteField(ctx, id); err != nil {
			return err
		}
		r.deleted[id] = f
		return nil
	case op_RestoreField:
		f, ok := r.deleted[fielddef.FieldID(s.FieldID)]
		if !ok {
			return fielddef.ErrNotFound("deleted field «%s»", s.FieldID)
		}
		if _, err := r.engine.RestoreField(ctx, f); err != nil {
			return err
		}
		delete(r.deleted, f.ID)
		return nil
	case op_RenameChoice:
		return r.engine.RenameChoice(ctx, fielddef.FieldID(s.FieldID), s.Old, s.New)
	}
	return fielddef.ErrInvalid("unknown step operation «%s»", s.Op)
}

// Checks expectations, prints failed ones. Returns number of failures
func (r *runner) verify(ctx context.Context, expect []expectation, out io.Writer) int {
	failed := 0
	fail := func(e expectation, format string, args ...any) {
		failed++
		fmt.Fprintf(out, "  %s %s.%s[%s]: %s\n", red("FAIL"), e.Table, e.Field, e.Key, fmt.Sprintf(format, args...))
	}
	for _, e := range expect {
		if e.HasError != nil {
			f, err := r.engine.Field(ctx, fielddef.FieldID(e.Field))
			if err != nil {
				fail(e, "%v", err)
				continue
			}
			if f.HasError != *e.HasError {
				fail(e, "hasError is %v, expected %v", f.HasError, *e.HasError)
			}
		}
		if e.Key == "" {
			continue
		}
		id, err := r.record(e.Key)
		if err != nil {
			fail(e, "%v", err)
			continue
		}
		rec, err := r.engine.Record(ctx, fielddef.TableID(e.Table), id)
		if err != nil {
			fail(e, "%v", err)
			continue
		}
		if got := rec.Get(fielddef.FieldID(e.Field)); !fielddef.Equal(got, fielddef.Normalize(jsonable(e.Value))) && !fielddef.Equal(fielddef.ToText(got), e.Value) {
			fail(e, "value is «%v», expected «%v»", fielddef.ToText(got), e.Value)
		}
	}
	return failed
}

// Applies whole scenario and checks expectations
func (r *runner) run(ctx context.Context, s *scenario, out io.Writer) error {
	if err := r.define(ctx, s, out); err != nil {
		return err
	}
	for _, rec := range s.Records {
		if err := r.create(ctx, rec); err != nil {
			return fielddef.EnrichError(err, "record «%s»", rec.Key)
		}
	}
	r.failed += r.verify(ctx, s.Expect, out)

	for i, st := range s.Steps {
		name := st.Name
		if name == "" {
			name = fmt.Sprintf("#%d %s", i+1, st.Op)
		}
		if logger.IsVerbose() {
			logger.Verbose("step", name)
		}
		if err := r.step(ctx, st); err != nil {
			return fielddef.EnrichError(err, "step %s", name)
		}
		failed := r.verify(ctx, st.Expect, out)
		status := green("ok")
		if failed > 0 {
			status = red("failed")
		}
		fmt.Fprintf(out, "step %s: %s\n", name, status)
		r.failed += failed
	}
	return nil
}

// Prints records of all scenario tables. Cells of errored fields are red
func (r *runner) print(ctx context.Context, s *scenario, out io.Writer) error {
	for _, t := range s.Tables {
		id := fielddef.TableID(t.ID)
		fields, err := r.engine.Fields(ctx, id)
		if err != nil {
			return err
		}
		records, err := r.engine.Records(ctx, id)
		if err != nil {
			return err
		}
		keys := make(map[fielddef.RecordID]string, len(r.keys))
		for k, v := range r.keys {
			keys[v] = k
		}
		fmt.Fprintf(out, "%s:\n", t.Name)
		for _, rec := range records {
			fmt.Fprintf(out, "  %s\n", cmp.Or(keys[rec.ID], string(rec.ID)))
			for _, f := range fields {
				v := fielddef.ToText(rec.Get(f.ID))
				if f.HasError {
					v = red(v + " (error)")
				}
				fmt.Fprintf(out, "    %s: %s\n", f.Name, v)
			}
		}
	}
	return nil
}
