/*
 * Copyright (c) 2025-present unTill Software Development Group B.V.
 */

package istructsmem

// Partition key prefixes
const (
	// pKey: prefix; cCols: table id; value: table JSON
	prefix_Tables byte = 't'

	// pKey: prefix + table id; cCols: field id; value: field JSON
	prefix_Fields byte = 'f'

	// pKey: prefix; cCols: field id; value: table id
	prefix_FieldTables byte = 'i'

	// pKey: prefix + table id; cCols: record id; value: record JSON
	prefix_Records byte = 'r'

	// pKey: prefix; cCols: table id; value: last record sequence number
	prefix_Seqs byte = 's'

	// pKey: prefix + link field id; cCols: target record id; value: owner record id
	prefix_Claims byte = 'c'

	// pKey: prefix; cCols: junction key; value: junction name
	prefix_Junctions byte = 'j'
)

const DefaultFieldMetaCacheSize = 1024

const junctionNamePrefix = "jnc_"

const seqSize = 8
