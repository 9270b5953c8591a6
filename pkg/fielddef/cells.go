/*
 * Copyright (c) 2025-present unTill Software Development Group B.V.
 */

package fielddef

import (
	"bytes"
	"encoding/json"
	"time"
)

// Marshals cell value as plain JSON.
//
// Dates are rendered as RFC3339 strings, links as {"id","title"} objects.
func MarshalCell(v any) ([]byte, error) {
	switch x := Normalize(v).(type) {
	case time.Time:
		return json.Marshal(x.Format(time.RFC3339Nano))
	case nil:
		return []byte("null"), nil
	default:
		return json.Marshal(x)
	}
}

// Unmarshals plain JSON cell value.
//
// Objects with "id" key become LinkRef.
func UnmarshalCell(data []byte) (any, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil
	}
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	return plainToCell(raw)
}

func plainToCell(raw any) (any, error) {
	switch x := raw.(type) {
	case map[string]any:
		id, ok := x["id"].(string)
		if !ok {
			return nil, ErrConvert("object without id to cell value")
		}
		title, _ := x["title"].(string)
		return LinkRef{ID: RecordID(id), Title: title}, nil
	case []any:
		res := make([]any, 0, len(x))
		for _, i := range x {
			c, err := plainToCell(i)
			if err != nil {
				return nil, err
			}
			res = append(res, c)
		}
		return Normalize(res), nil
	}
	return raw, nil
}

const (
	cellTag_Text   = "s"
	cellTag_Number = "n"
	cellTag_Bool   = "b"
	cellTag_Date   = "d"
	cellTag_Link   = "l"
	cellTag_List   = "a"
)

// Typed cell envelope. Keeps exact cell value type across storage round trip.
type typedCell struct {
	T string          `json:"t"`
	V json.RawMessage `json:"v"`
}

func MarshalTypedCell(v any) (json.RawMessage, error) {
	tc := typedCell{}
	var (
		err error
		raw []byte
	)
	switch x := Normalize(v).(type) {
	case nil:
		return json.RawMessage("null"), nil
	case string:
		tc.T = cellTag_Text
		raw, err = json.Marshal(x)
	case float64:
		tc.T = cellTag_Number
		raw, err = json.Marshal(x)
	case bool:
		tc.T = cellTag_Bool
		raw, err = json.Marshal(x)
	case time.Time:
		tc.T = cellTag_Date
		raw, err = json.Marshal(x.Format(time.RFC3339Nano))
	case LinkRef:
		tc.T = cellTag_Link
		raw, err = json.Marshal(x)
	case []any:
		tc.T = cellTag_List
		items := make([]json.RawMessage, 0, len(x))
		for _, i := range x {
			r, e := MarshalTypedCell(i)
			if e != nil {
				return nil, e
			}
			items = append(items, r)
		}
		raw, err = json.Marshal(items)
	default:
		return nil, ErrConvert("unsupported cell value type %T", v)
	}
	if err != nil {
		return nil, err
	}
	tc.V = raw
	return json.Marshal(tc)
}

func UnmarshalTypedCell(data json.RawMessage) (any, error) {
	if len(data) == 0 || bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil, nil
	}
	tc := typedCell{}
	if err := json.Unmarshal(data, &tc); err != nil {
		return nil, err
	}
	switch tc.T {
	case cellTag_Text:
		var s string
		err := json.Unmarshal(tc.V, &s)
		return s, err
	case cellTag_Number:
		var f float64
		err := json.Unmarshal(tc.V, &f)
		return f, err
	case cellTag_Bool:
		var b bool
		err := json.Unmarshal(tc.V, &b)
		return b, err
	case cellTag_Date:
		var s string
		if err := json.Unmarshal(tc.V, &s); err != nil {
			return nil, err
		}
		return time.Parse(time.RFC3339Nano, s)
	case cellTag_Link:
		l := LinkRef{}
		err := json.Unmarshal(tc.V, &l)
		return l, err
	case cellTag_List:
		var items []json.RawMessage
		if err := json.Unmarshal(tc.V, &items); err != nil {
			return nil, err
		}
		res := make([]any, 0, len(items))
		for _, i := range items {
			c, err := UnmarshalTypedCell(i)
			if err != nil {
				return nil, err
			}
			res = append(res, c)
		}
		return res, nil
	}
	return nil, ErrConvert("unknown cell tag «%s»", tc.T)
}

type recordJSON struct {
	ID      RecordID                    `json:"id"`
	Table   TableID                     `json:"tableId"`
	Seq     int64                       `json:"seq"`
	Created time.Time                   `json:"created"`
	Cells   map[FieldID]json.RawMessage `json:"cells"`
}

func (r Record) MarshalJSON() ([]byte, error) {
	rj := recordJSON{ID: r.ID, Table: r.Table, Seq: r.Seq, Created: r.Created, Cells: make(map[FieldID]json.RawMessage, len(r.Cells))}
	for f, v := range r.Cells {
		raw, err := MarshalTypedCell(v)
		if err != nil {
			return nil, EnrichError(err, "field «%v»", f)
		}
		rj.Cells[f] = raw
	}
	return json.Marshal(rj)
}

func (r *Record) UnmarshalJSON(data []byte) error {
	rj := recordJSON{}
	if err := json.Unmarshal(data, &rj); err != nil {
		return err
	}
	r.ID, r.Table, r.Seq, r.Created = rj.ID, rj.Table, rj.Seq, rj.Created
	r.Cells = make(map[FieldID]any, len(rj.Cells))
	for f, raw := range rj.Cells {
		v, err := UnmarshalTypedCell(raw)
		if err != nil {
			return EnrichError(err, "field «%v»", f)
		}
		if v != nil {
			r.Cells[f] = v
		}
	}
	return nil
}
