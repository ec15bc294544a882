// Package core cleans one CSV dataset against its schema.
//
// A run moves data strictly forward through five stages:
//
//   - Load: read the file, flatten header rows, rename columns, drop skip
//     rows and apply the row limit.
//   - Standardize: run each column's transform chain over the column.
//   - Coerce: convert each column to the type its validation chain names.
//   - Validate: reject every row whose first failing rule is found, tallying
//     it under "column:rule".
//   - Report: write the surviving rows to clean_<name> and summarise.
//
// [Clean] runs all stages for one file and returns a [CleanReport]. A
// dataset whose schema matches none of its columns is reported as skipped
// rather than failed.
package core
