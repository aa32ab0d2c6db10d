package response

import "net/http"

// Convenience wrappers: each pins a status code and delegates to
// RespondWithMessage, RespondWithMessageAndPayload or RespondWithError.

// RespondOk responds 200 with a message (default "Ok").
func (b Builder) RespondOk(message ...string) *Response {
	return b.WithStatusCode(http.StatusOK).RespondWithMessage(messageOr("Ok", message))
}

// RespondCreated responds 201 with a message (default "Created").
func (b Builder) RespondCreated(message ...string) *Response {
	return b.WithStatusCode(http.StatusCreated).RespondWithMessage(messageOr("Created", message))
}

// RespondCreatedWithPayload responds 201 with payload and message (default "Created").
func (b Builder) RespondCreatedWithPayload(payload any, message ...string) *Response {
	return b.WithStatusCode(http.StatusCreated).
		RespondWithMessageAndPayload(payload, messageOr("Created", message))
}

// RespondUpdated responds 202 with a message (default "Updated").
func (b Builder) RespondUpdated(message ...string) *Response {
	return b.WithStatusCode(http.StatusAccepted).RespondWithMessage(messageOr("Updated", message))
}

// RespondUpdatedWithPayload responds 202 with payload and message (default "Updated").
func (b Builder) RespondUpdatedWithPayload(payload any, message ...string) *Response {
	return b.WithStatusCode(http.StatusAccepted).
		RespondWithMessageAndPayload(payload, messageOr("Updated", message))
}

// RespondDeleted responds 202 with a message (default "Deleted").
func (b Builder) RespondDeleted(message ...string) *Response {
	return b.WithStatusCode(http.StatusAccepted).RespondWithMessage(messageOr("Deleted", message))
}

// RespondDeletedWithPayload responds 202 with payload and message (default "Deleted").
func (b Builder) RespondDeletedWithPayload(payload any, message ...string) *Response {
	return b.WithStatusCode(http.StatusAccepted).
		RespondWithMessageAndPayload(payload, messageOr("Deleted", message))
}

// RespondNoContent responds 204. The envelope is built but a 204 carries no
// body on the wire.
func (b Builder) RespondNoContent(message ...string) *Response {
	return b.WithStatusCode(http.StatusNoContent).RespondWithMessage(messageOr("Ok", message))
}

// RespondUnauthorized responds 401 (default "Unauthorized").
func (b Builder) RespondUnauthorized(message ...string) *Response {
	return b.WithStatusCode(http.StatusUnauthorized).
		RespondWithError(messageOr("Unauthorized", message), nil, nil)
}

// RespondForbidden responds 403 (default "Forbidden").
func (b Builder) RespondForbidden(message ...string) *Response {
	return b.WithStatusCode(http.StatusForbidden).
		RespondWithError(messageOr("Forbidden", message), nil, nil)
}

// RespondNotFound responds 404 (default "Not Found").
func (b Builder) RespondNotFound(message ...string) *Response {
	return b.WithStatusCode(http.StatusNotFound).
		RespondWithError(messageOr("Not Found", message), nil, nil)
}

// RespondBadRequest responds 400 (default "Bad Request").
func (b Builder) RespondBadRequest(message ...string) *Response {
	return b.WithStatusCode(http.StatusBadRequest).
		RespondWithError(messageOr("Bad Request", message), nil, nil)
}

// RespondHTTPNotAcceptable responds 406 (default "HTTP Not Acceptable").
func (b Builder) RespondHTTPNotAcceptable(message ...string) *Response {
	return b.WithStatusCode(http.StatusNotAcceptable).
		RespondWithError(messageOr("HTTP Not Acceptable", message), nil, nil)
}

// RespondValidationError responds 422. An empty message becomes
// "Validation Error"; payload typically carries the field errors.
func (b Builder) RespondValidationError(message string, payload any) *Response {
	if message == "" {
		message = "Validation Error"
	}
	return b.WithStatusCode(http.StatusUnprocessableEntity).RespondWithError(message, nil, payload)
}

// RespondInternalError responds 500 (empty message becomes "Internal Error").
func (b Builder) RespondInternalError(message string, detail any) *Response {
	if message == "" {
		message = "Internal Error"
	}
	return b.WithStatusCode(http.StatusInternalServerError).RespondWithError(message, detail, nil)
}

// RespondServiceUnavailable responds 503 (empty message becomes "Service Unavailable").
func (b Builder) RespondServiceUnavailable(message string, detail any) *Response {
	if message == "" {
		message = "Service Unavailable"
	}
	return b.WithStatusCode(http.StatusServiceUnavailable).RespondWithError(message, detail, nil)
}

// RespondNotImplemented responds 501 (default "Internal Error").
func (b Builder) RespondNotImplemented(message ...string) *Response {
	return b.WithStatusCode(http.StatusNotImplemented).
		RespondWithError(messageOr("Internal Error", message), nil, nil)
}

// RespondResourceConflict responds 409 (default "Resource Already Exists").
func (b Builder) RespondResourceConflict(message ...string) *Response {
	return b.WithStatusCode(http.StatusConflict).
		RespondWithError(messageOr("Resource Already Exists", message), nil, nil)
}

// RespondResourceConflictWithData responds with payload on the
// message-and-payload path, so success stays true. status defaults to 409;
// an empty message becomes "Resource Already Exists".
func (b Builder) RespondResourceConflictWithData(payload any, message string, status ...int) *Response {
	code := http.StatusConflict
	if len(status) > 0 {
		code = status[0]
	}
	if message == "" {
		message = "Resource Already Exists"
	}
	return b.WithStatusCode(code).RespondWithMessageAndPayload(payload, message)
}

// RespondCustomError responds with an arbitrary status (empty message
// becomes "Internal Error").
func (b Builder) RespondCustomError(message string, status int, detail any) *Response {
	if message == "" {
		message = "Internal Error"
	}
	return b.WithStatusCode(status).RespondWithError(message, detail, nil)
}
