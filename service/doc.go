// Package service exposes the document validation and analysis pipeline as a
// reusable facade: ingest, validate, analyze, rule retrieval, prompt and
// schema versioning, and reviewer feedback.
//
// The CLI, the MCP server and the cloud function are thin adapters over this
// package.
package service
