/*
 * Copyright (c) 2025-present unTill Software Development Group B.V.
 */

package fielddef

import (
	"strconv"
	"strings"
)

// Field kind enumeration
type FieldKind uint8

const (
	FieldKind_null FieldKind = iota

	// Plain authored value
	FieldKind_Value

	// Reference (or references) to records of the foreign table
	FieldKind_Link

	// Unaggregated foreign values read through a link or a filter
	FieldKind_Lookup

	// Aggregated foreign values read through a link
	FieldKind_Rollup

	// Aggregated foreign values selected by a filter over the whole foreign table
	FieldKind_ConditionalRollup

	// Expression over fields of the same record
	FieldKind_Formula

	FieldKind_count
)

var fieldKindNames = [FieldKind_count]string{
	FieldKind_null:              "null",
	FieldKind_Value:             "value",
	FieldKind_Link:              "link",
	FieldKind_Lookup:            "lookup",
	FieldKind_Rollup:            "rollup",
	FieldKind_ConditionalRollup: "conditionalRollup",
	FieldKind_Formula:           "formula",
}

func (k FieldKind) String() string {
	if k < FieldKind_count {
		return fieldKindNames[k]
	}
	return "FieldKind(" + strconv.FormatUint(uint64(k), 10) + ")"
}

// Returns is value of the field kind is produced by the engine
func (k FieldKind) IsComputed() bool {
	switch k {
	case FieldKind_Lookup, FieldKind_Rollup, FieldKind_ConditionalRollup, FieldKind_Formula:
		return true
	}
	return false
}

func (k FieldKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *FieldKind) UnmarshalText(text []byte) error {
	return unmarshalEnum(text, fieldKindNames[:], k, "field kind")
}

// Cell type enumeration
type CellType uint8

const (
	CellType_null CellType = iota
	CellType_Text
	CellType_LongText
	CellType_Number
	CellType_Checkbox
	CellType_Date
	CellType_SingleSelect
	CellType_MultipleSelect
	CellType_User
	CellType_Link

	CellType_count
)

var cellTypeNames = [CellType_count]string{
	CellType_null:           "null",
	CellType_Text:           "text",
	CellType_LongText:       "longText",
	CellType_Number:         "number",
	CellType_Checkbox:       "checkbox",
	CellType_Date:           "date",
	CellType_SingleSelect:   "singleSelect",
	CellType_MultipleSelect: "multipleSelect",
	CellType_User:           "user",
	CellType_Link:           "link",
}

func (t CellType) String() string {
	if t < CellType_count {
		return cellTypeNames[t]
	}
	return "CellType(" + strconv.FormatUint(uint64(t), 10) + ")"
}

func (t CellType) IsText() bool {
	return t == CellType_Text || t == CellType_LongText
}

func (t CellType) IsSelect() bool {
	return t == CellType_SingleSelect || t == CellType_MultipleSelect
}

// Returns is cell of the type may hold a list of values regardless of field settings
func (t CellType) IsMultiple() bool { return t == CellType_MultipleSelect }

func (t CellType) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

func (t *CellType) UnmarshalText(text []byte) error {
	return unmarshalEnum(text, cellTypeNames[:], t, "cell type")
}

// Relationship kind enumeration
type Relationship uint8

const (
	Relationship_null Relationship = iota
	Relationship_OneOne
	Relationship_OneMany
	Relationship_ManyOne
	Relationship_ManyMany

	Relationship_count
)

var relationshipNames = [Relationship_count]string{
	Relationship_null:     "null",
	Relationship_OneOne:   "oneOne",
	Relationship_OneMany:  "oneMany",
	Relationship_ManyOne:  "manyOne",
	Relationship_ManyMany: "manyMany",
}

func (r Relationship) String() string {
	if r < Relationship_count {
		return relationshipNames[r]
	}
	return "Relationship(" + strconv.FormatUint(uint64(r), 10) + ")"
}

// Returns relationship seen from the foreign table.
//
// OneMany↔ManyOne, OneOne↔OneOne, ManyMany↔ManyMany
func (r Relationship) Inverse() Relationship {
	switch r {
	case Relationship_OneMany:
		return Relationship_ManyOne
	case Relationship_ManyOne:
		return Relationship_OneMany
	}
	return r
}

// Returns is the host cell holds many references
func (r Relationship) IsMultiple() bool {
	return r == Relationship_OneMany || r == Relationship_ManyMany
}

// Returns is each foreign record may be referenced by one host record only
func (r Relationship) IsUniqueTarget() bool {
	return r == Relationship_OneOne || r == Relationship_OneMany
}

func (r Relationship) MarshalText() ([]byte, error) { return []byte(r.String()), nil }

func (r *Relationship) UnmarshalText(text []byte) error {
	return unmarshalEnum(text, relationshipNames[:], r, "relationship")
}

func unmarshalEnum[T ~uint8](text []byte, names []string, v *T, what string) error {
	s := string(text)
	for i, n := range names {
		if strings.EqualFold(n, s) {
			*v = T(i)
			return nil
		}
	}
	if n, err := strconv.ParseUint(s, 10, 8); err == nil && int(n) < len(names) {
		*v = T(n)
		return nil
	}
	return ErrConvert("unknown %s «%s»", what, s)
}
