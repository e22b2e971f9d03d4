// Package sqlgen builds SQL statement text from table names and
// column/value pairs. Nothing here talks to a database.
//
// Values are copied into the statement verbatim. Insert values are wrapped
// in single quotes, everything else is emitted as-is; no escaping happens.
package sqlgen

import "strings"

// Builder generates statements for the dynamic table endpoints.
//
// With LegacyWhere set, WHERE conditions are appended to "1=1" without a
// leading " AND ", reproducing statements such as "WHERE 1=1id=3".
type Builder struct {
	LegacyWhere bool
}

// Select returns SELECT * FROM table filtered by every condition
func (b Builder) Select(table string, conditions Fields) string {
	var sb strings.Builder
	sb.WriteString("SELECT * FROM ")
	sb.WriteString(table)
	b.writeWhere(&sb, conditions)
	return sb.String()
}

// Insert returns an INSERT statement with columns in the order of values
func (b Builder) Insert(table string, values Fields) string {
	quoted := make([]string, 0, len(values))
	for _, field := range values {
		quoted = append(quoted, "'"+field.Value+"'")
	}

	var sb strings.Builder
	sb.WriteString("INSERT INTO ")
	sb.WriteString(table)
	sb.WriteString("(")
	sb.WriteString(strings.Join(values.Keys(), ","))
	sb.WriteString(") VALUES(")
	sb.WriteString(strings.Join(quoted, ","))
	sb.WriteString(")")
	return sb.String()
}

// Update returns an UPDATE statement setting values on rows matching conditions
func (b Builder) Update(table string, conditions, values Fields) string {
	var sb strings.Builder
	sb.WriteString("UPDATE ")
	sb.WriteString(table)
	sb.WriteString(" SET ")
	sb.WriteString(joinPairs(values, ", "))
	b.writeWhere(&sb, conditions)
	return sb.String()
}

// Delete returns a DELETE statement removing rows matching conditions
func (b Builder) Delete(table string, conditions Fields) string {
	var sb strings.Builder
	sb.WriteString("DELETE FROM ")
	sb.WriteString(table)
	b.writeWhere(&sb, conditions)
	return sb.String()
}

func (b Builder) writeWhere(sb *strings.Builder, conditions Fields) {
	sb.WriteString(" WHERE 1=1")
	if b.LegacyWhere {
		sb.WriteString(joinPairs(conditions, " AND "))
		return
	}
	for _, field := range conditions {
		sb.WriteString(" AND ")
		sb.WriteString(field.Key)
		sb.WriteString("=")
		sb.WriteString(field.Value)
	}
}

func joinPairs(fields Fields, sep string) string {
	pairs := make([]string, 0, len(fields))
	for _, field := range fields {
		pairs = append(pairs, field.Key+"="+field.Value)
	}
	return strings.Join(pairs, sep)
}
