// Package tasks implements the upload-and-result workflow of the colorize client.
//
// # Controller
//
// [Controller] owns the session state: the selected file, its local preview
// reference, upload progress, the busy flag, the last result and the error
// text. The display mode is derived from that state, never stored:
//
//	Empty → HasFileNoResult → Submitting → HasResult
//
// Accept (also used to replace a file) validates the media type and then the
// size before anything is read. Submit issues exactly one request bounded by
// a timeout, and the busy flag is released on every exit path.
//
// # Progress Reporting
//
// Submissions and batch runs emit [ProgressUpdate] values through channels.
// Sends use select with default so a slow consumer never stalls an upload.
// UI hosts that prefer callbacks register with [Controller.Subscribe].
//
// # Batch
//
// [RunBatch] pushes several files through one controller sequentially, paced
// by a token bucket, optionally saving each result to an output directory.
package tasks
