// Package core provides the business logic for sales file ingestion.
//
// This package contains all domain logic independent of any transport
// layer. It can be used by web handlers or tests without modification.
//
// # Pipeline
//
// A file flows through these stages, each usable on its own:
//
//	bytes ─ Decode ─ DetectDelimiter ─ Tokenize ─┐
//	bytes ─ ReadWorkbook (.xlsx) ────────────────┤
//	                                             ▼
//	                          NewTable (ResolveHeaders) ─ BuildRecords
//
// Parse runs the whole pipeline. Nothing in it rejects a row: a missing
// product becomes UnnamedProduct, a bad quantity becomes zero and a bad date
// is absent (pgtype.Date with Valid=false).
//
// # Views
//
// From the records of the current dataset:
//
//   - ApplyFilters and Summarize give the per-product table for a
//     FilterCriteria.
//   - Suggest gives fast movers and data-quality issues. It always sees the
//     full dataset, never the filtered one.
//
// # Service
//
// Service holds the current dataset. Load replaces it as a whole and a
// LoadGate keeps two loads from running at once. Query methods work on an
// immutable snapshot, so they are safe to call concurrently with Load.
//
// # Errors
//
// Load failures are sentinel errors (ErrUnsupportedFileType, ErrReadFailed,
// ErrParseFailed and others) wrapped with context. MapError turns any error
// into a coded UserMessage for display.
package core
