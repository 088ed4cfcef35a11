// Package diag defines the non-fatal findings of a translation.
//
// A Diagnostic names the module entity it concerns (its Subject, e.g. "@a"
// or "record 12"), a stable Code and a short message. Failures that stop a
// translation are errors, not diagnostics; diagnostics describe what was
// ignored or tolerated on the way.
//
// Producers emit through a Reporter so storage stays decoupled:
//
//	diag.Warning(rep, diag.WarnUnresolvedAlias, "@a", "alias target never resolved")
//
// BagReporter aggregates into a Bag, which supports sorting, deduplication
// and merging. Format renders a stable one-line-per-entry listing used by the
// CLI and by tests.
package diag
