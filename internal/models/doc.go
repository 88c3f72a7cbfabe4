// Package models defines the transient entities held by the colorize client.
//
// Nothing here is persisted: every value lives in memory for a single session.
//
//   - [Candidate] : a file the user picked or dropped, not yet validated
//   - [SelectedFile] : a validated image with its bytes loaded
//   - [ColorizeResult] : the backend's response with paths relative to the API base
//   - [DisplayURLs] : absolute URLs derived from a result
//   - [Mode] : the visible UI mode derived from controller state
package models
