// Package normalize turns heterogeneous per-market security-detail records
// into the canonical ProcessedProduct shape.
//
// The pipeline for one market batch runs leaves first: required-field
// validation against the market's ordered field paths, cross-reference
// backfill for families with cross-listed issuers, then one mapping per
// source schema variant into the canonical record, enriched with the
// unified sector taxonomy, MIC-derived country, per-product liquidity, and
// the resolved market-migration history.
//
// Every step is deterministic and free of I/O; all lookup tables are
// immutable after loading, so a single Normalizer is shared across parallel
// market runs.
package normalize
