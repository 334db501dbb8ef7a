// Package core provides the business logic for workbook preview, paging and
// export.
//
// This package holds all domain logic independent of any transport layer.
// It is used by the HTTP server and the inspect CLI without modification.
//
// # Architecture
//
// The package is organized around several key concepts:
//
//   - Cell and Row: the typed values a sheet yields (null, string, number,
//     boolean, date).
//   - Workbook and RowWindow: the parser contract. A window is a forward-only
//     cursor over one sheet; every read opens a fresh one at row zero.
//   - WorkbookStore: caches uploaded bytes under an opaque token. The
//     in-process [MemoryStore] is bounded and expires idle entries.
//   - Service: the main entry point for all operations (preview, page, export).
//
// # Request Flow
//
// Nothing parsed is kept between requests; only the raw bytes are cached.
//
//  1. Client uploads a workbook; [Service.Preview] parses it, previews every
//     sheet and stores the bytes, returning a token
//  2. [Service.Page] resolves the token (refreshing its idle timer), parses
//     the bytes again and reads one window of rows
//  3. [Service.OpenExport] does the same lookup up front, so a missing token
//     or sheet is reported before any export output is written
//
// Paging walks from the top of the sheet each time, so a request costs
// O(offset + limit) rows read, plus a count of the remainder for total_rows.
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using [MapError].
// Each error category has a unique code for support reference:
//
//   - FILE001-FILE004: File errors (size, type, unreadable, missing)
//   - TOK001-TOK002: Token errors (unknown, expired)
//   - SHT001: Sheet not found
//   - EXP001: Export failed after output started
//   - VAL001-VAL002: Request validation
//   - UPL002, UPL004: Upload concurrency and cancellation
//   - AUTH001-AUTH003, RATE001: Identity and rate limiting (HTTP layer)
package core
