// Package services implements the HTTP client for the colorization backend.
//
// # Colorizer Interface
//
// [Colorizer] is the contract the upload controller depends on, so tests and
// the batch runner can substitute doubles for the real backend.
//
// # Upload
//
// [ColorizeService.Colorize] encodes the selected image as a single multipart
// part named "file" and POSTs it to /api/colorize. The body length is known up
// front, so a wrapping reader reports (sent, total) to a [ProgressFunc] as the
// transport consumes it.
//
// # Error Handling
//
// Failures are classified into the shared taxonomy:
//   - [shared.TransportError] : connection failures and deadlines (Timeout set)
//   - [shared.ServiceError] : non-2xx responses, with FastAPI's "detail" string kept verbatim
//   - [shared.ErrMalformedResponse] : 2xx bodies missing preview_url or download_url
//
// Deadlines are owned by the caller's context; the client never sets its own.
//
// # Raw Access
//
// [APIService] issues raw GET requests for the `colorize api get` debugging command.
package services
