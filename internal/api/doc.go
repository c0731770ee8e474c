// Package api handles incoming HTTP requests, request validation and
// response formatting. It adapts the session, catalog and identity services
// to the JSON API consumed by the explorer client.
package api
