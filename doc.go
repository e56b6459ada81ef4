// Package declara turns brokerage account reports into Spanish statutory
// tax declarations. It is designed to run entirely in memory, once per
// declarant and fiscal year, with no persistence and no network access.
//
// The core functionalities include:
//   - Report Ingestion: broker-specific parsers (Degiro statements and CSV
//     exports, Interactive Brokers HTML and CSV activity reports) that
//     recover typed movements and period-end positions from semi-structured
//     documents.
//   - Instrument Resolution: validating International Securities
//     Identification Numbers and reconciling ticker/name variants so that
//     the same security reported by two brokers resolves to one canonical
//     Instrument.
//   - Canonical Ledger: a broker-agnostic model of movements and position
//     snapshots, valued in the reporting currency through a supplied
//     exchange-rate table, with replay-based reconciliation of directly
//     reported holdings.
//   - Declaration Rules: two independent rule sets mapping the ledger onto
//     the D-6 foreign-securities form and the AEAT 720 foreign-assets form.
//   - Form Generation: byte-exact serialization of each form (Aforix D-6
//     XML, AEAT 720 fixed-width registers in ISO-8859-15), where identical
//     input always produces identical output.
//
// All monetary values are fixed-precision decimals; floating point never
// enters a declaration. Non-fatal issues (skipped rows, unresolved
// instruments, stale exchange rates, reconciliation mismatches) are
// accumulated as warnings and surfaced to the caller, never dropped.
//
// This package serves as the foundational logic for the `dcl` command-line
// tool.
package declara
