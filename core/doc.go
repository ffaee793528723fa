// Package core defines the domain model for the Argus analysis pipeline.
//
// The core package provides:
//   - Entity and document analysis types produced by extraction
//   - Classification and security analysis result types
//   - The persisted PipelineResult and its stable JSON schema
//   - The error taxonomy shared by every pipeline stage
//
// Types here are plain data: once a stage produces a value it is never
// mutated. Behaviour lives in the extract, classify, recommend and
// pipeline packages, which all accept and return core types.
package core
