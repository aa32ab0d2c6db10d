// Package handlers defines the HTTP-layer errors and messages used across
// API endpoints.
//
// Errors here carry a response.ErrorKind, so the classifier maps them to
// their canonical status and message without handler involvement.
package handlers

import "github.com/tbourn/go-api-response/response"

var errInvalidContactID = response.NewError(response.KindMalformedRequest, "contact id must be a UUID")

const (
	msgContactExists   = "Contact already exists"
	msgContactsListed  = "Contacts retrieved"
	msgRestoreNotReady = "Contact restore is not implemented"
)
