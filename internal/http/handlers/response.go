// Package handlers provides HTTP handler implementations for the public API.
//
// This file holds the response helpers shared by every endpoint. Success
// responses are built from the request's response.Builder (see
// middleware.Responder), so every body uses the same envelope:
//
//	HTTP/1.1 200 OK
//	{ "success": true, "message": "Ok", "payload": { … } }
//
// Failures are never rendered here. Handlers hand the error to fail(), and
// middleware.ErrorHandler classifies and renders it:
//
//	HTTP/1.1 404 Not Found
//	{ "success": false, "message": "Record not found", "payload": null }
package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/tbourn/go-api-response/internal/http/middleware"
	"github.com/tbourn/go-api-response/response"
	"github.com/tbourn/go-api-response/response/transformers"
)

// respond returns the request-scoped builder (X-Request-ID attached).
func respond(c *gin.Context) response.Builder {
	return middleware.BuilderFrom(c)
}

// fail records err for the error boundary and stops the chain.
func fail(c *gin.Context, err error) {
	middleware.Fail(c, err)
}

// Fail is the exported variant of fail().
//
// External packages (e.g., router fallbacks) use it to produce the same
// classified envelopes as handlers.
func Fail(c *gin.Context, err error) { fail(c, err) }

// bindJSON decodes the request body into dst. Validation failures answer
// 422 with the validation rule's message ("In valid request") and one
// {field, message} record per failing field; undecodable
// bodies fail as malformed requests. It reports whether binding succeeded.
func bindJSON(c *gin.Context, dst any) bool {
	err := c.ShouldBindJSON(dst)
	if err == nil {
		return true
	}
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		fields := transformers.Validation{}.Response(transformers.FromValidator(ve))
		b := respond(c)
		b.RespondValidationError(b.Classifier().Classify(ve).Message, fields).Abort(c)
		return false
	}
	fail(c, response.Wrap(response.KindMalformedRequest, err))
	return false
}
