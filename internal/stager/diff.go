/*-------------------------------------------------------------------------
 *
 * diff.go
 *    Update preview diff computation
 *
 * A field counts as changed iff its canonical JSON serialization in
 * depois differs from antes. json.Marshal emits map keys in sorted
 * order, which makes the serialized form canonical for the dynamic row
 * payloads flowing through the pipeline.
 *
 * Copyright (c) 2024-2026, Zyra Tecnologia Ltda. <dev@zyra.app.br>
 *
 * IDENTIFICATION
 *    internal/stager/diff.go
 *
 *-------------------------------------------------------------------------
 */

package stager

import (
	"encoding/json"
	"sort"
)

/* ComputeChanges returns the fields of depois whose serialized value differs from antes */
func ComputeChanges(antes, depois map[string]interface{}) []FieldChange {
	fields := make([]string, 0, len(depois))
	for k := range depois {
		fields = append(fields, k)
	}
	sort.Strings(fields)

	var changes []FieldChange
	for _, field := range fields {
		before, hasBefore := antes[field]
		after := depois[field]
		if hasBefore && canonicalEqual(before, after) {
			continue
		}
		if !hasBefore && after == nil {
			continue
		}
		changes = append(changes, FieldChange{Field: field, Antes: before, Depois: after})
	}
	return changes
}

func canonicalEqual(a, b interface{}) bool {
	aJSON, errA := json.Marshal(a)
	bJSON, errB := json.Marshal(b)
	if errA != nil || errB != nil {
		/* Unserializable values never compare equal */
		return false
	}
	return string(aJSON) == string(bJSON)
}
