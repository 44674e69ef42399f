// Package core orchestrates cleaning runs for sheetprep.
//
// It sits between the transport layer and the domain packages and holds no
// HTTP or UI code, so the web server and the CLI share it unchanged.
//
// # Runs
//
// A run turns one uploaded spreadsheet into a stored, cleaned workbook:
//
//  1. the upload is checked (file type, size, non-empty)
//  2. a slot is taken from the [RunLimiter]
//  3. the sheet is decoded and passed through [cleaning.CleanWithReport]
//  4. the result is scored with [quality.Score]
//  5. the cleaned table is written as xlsx under a name unique to the run
//  6. a [store.Run] record is written and the result is cached
//
// [Service.Analyze] adds chart planning and generated narrative between
// steps 4 and 5. Generator failures are stored as text in the result and
// never fail the run.
//
// # Error Handling
//
// Technical errors are mapped to user-facing messages with [MapError]. Each
// category has a code for support reference:
//
//   - FILE001-FILE006: upload and download problems
//   - PARSE001-PARSE002: unreadable spreadsheets
//   - RUN001-RUN004: capacity, lookups, cancellation and timeouts
//   - AI001-AI002: generator configuration and empty answers
//   - STORE001: run history database
//
// # Retention
//
// Output workbooks and run records expire. [Service.StartRetentionSweeper]
// deletes both once they are older than the configured retention.
package core
