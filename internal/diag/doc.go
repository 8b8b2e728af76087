// Package diag defines the diagnostic model shared by the loader, the emitter
// and the assembler.
//
// Diagnostic is the central record: Severity, a compact numeric Code with a
// stable string form, a short Message, the Primary position and optional Notes.
// Phases emit through a Reporter (usually a BagReporter) so that storage and
// rendering stay out of the producers; rendering lives in internal/diagfmt.
//
// Messages produced by the emitter are part of the compatibility surface: the
// exact text of goto/break/continue errors is preserved byte for byte, so keep
// formatting out of Message and put extra context into Notes instead.
package diag
