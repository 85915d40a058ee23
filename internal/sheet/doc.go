// Package sheet provides a keyed-record view over a spreadsheet-like grid.
//
// # Overview
//
// A [Grid] is a rectangular store of scalar cells whose header row names the
// columns. [Table] maps each header name to its column position through a
// [ColumnIndex] and exposes the data rows as [Record] values: enumerate them
// with [Table.FindAll], filter them with [Table.Find] and [Table.Pick], and
// mutate the grid with [Table.Insert], [Table.Update], [Table.Upsert] and
// [Table.Clear].
//
// # Cache
//
// FindAll reads the grid and stores the result. Find, Pick and the existence
// check of Upsert only look at that stored snapshot. Insert and Clear write
// the grid without touching the snapshot, so a Find right after an Insert
// does not see the new row until FindAll runs again. Update always re-reads
// the grid before writing, which also refreshes the snapshot.
//
// # Matching
//
// Conditions are exact: a [Value] only equals a value of the same kind, so
// the number 1 never matches the string "1". Fields that have no column are
// silently ignored on writes.
package sheet
