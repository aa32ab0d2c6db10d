// Package docs registers the OpenAPI description of the contacts API with
// swag, served by gin-swagger under /swagger/*any.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/contacts": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Contacts"],
                "summary": "List contacts (paginated)",
                "operationId": "listContacts",
                "parameters": [
                    {"type": "string", "description": "User ID", "name": "X-User-ID", "in": "header"},
                    {"type": "string", "description": "Return 304 if ETag matches", "name": "If-None-Match", "in": "header"},
                    {"minimum": 1, "type": "integer", "default": 1, "description": "Page number", "name": "page", "in": "query"},
                    {"maximum": 100, "minimum": 1, "type": "integer", "default": 20, "description": "Items per page", "name": "page_size", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Envelope"}, "headers": {"ETag": {"type": "string", "description": "Weak ETag for current result"}}},
                    "304": {"description": "Not Modified"},
                    "422": {"description": "Something went wrong with your query", "schema": {"$ref": "#/definitions/response.Envelope"}}
                }
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Contacts"],
                "summary": "Create a contact",
                "operationId": "createContact",
                "parameters": [
                    {"type": "string", "description": "User ID", "name": "X-User-ID", "in": "header"},
                    {"type": "string", "description": "Idempotency key for safe retries (UUID recommended)", "name": "Idempotency-Key", "in": "header"},
                    {"description": "Contact", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.ContactRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/response.Envelope"}},
                    "400": {"description": "Bad request", "schema": {"$ref": "#/definitions/response.Envelope"}},
                    "409": {"description": "Contact already exists", "schema": {"$ref": "#/definitions/response.Envelope"}},
                    "422": {"description": "In valid request", "schema": {"$ref": "#/definitions/response.Envelope"}}
                }
            }
        },
        "/contacts/export": {
            "get": {
                "produces": ["text/csv", "application/json"],
                "tags": ["Contacts"],
                "summary": "Export contacts",
                "operationId": "exportContacts",
                "responses": {
                    "200": {"description": "contacts.csv", "schema": {"type": "file"}},
                    "401": {"description": "Unauthorized request", "schema": {"$ref": "#/definitions/response.Envelope"}}
                }
            }
        },
        "/contacts/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Contacts"],
                "summary": "Get a contact",
                "operationId": "getContact",
                "parameters": [{"type": "string", "format": "uuid", "description": "Contact ID (UUID)", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Envelope"}},
                    "403": {"description": "Access denied", "schema": {"$ref": "#/definitions/response.Envelope"}},
                    "404": {"description": "Record not found", "schema": {"$ref": "#/definitions/response.Envelope"}}
                }
            },
            "put": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Contacts"],
                "summary": "Update a contact",
                "operationId": "updateContact",
                "parameters": [
                    {"type": "string", "format": "uuid", "description": "Contact ID (UUID)", "name": "id", "in": "path", "required": true},
                    {"description": "Contact", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.ContactRequest"}}
                ],
                "responses": {
                    "202": {"description": "Updated", "schema": {"$ref": "#/definitions/response.Envelope"}},
                    "409": {"description": "Contact already exists", "schema": {"$ref": "#/definitions/response.Envelope"}}
                }
            },
            "delete": {
                "produces": ["application/json"],
                "tags": ["Contacts"],
                "summary": "Delete a contact",
                "operationId": "deleteContact",
                "parameters": [{"type": "string", "format": "uuid", "description": "Contact ID (UUID)", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "202": {"description": "Deleted", "schema": {"$ref": "#/definitions/response.Envelope"}}
                }
            }
        },
        "/contacts/{id}/restore": {
            "post": {
                "produces": ["application/json"],
                "tags": ["Contacts"],
                "summary": "Restore a deleted contact",
                "operationId": "restoreContact",
                "parameters": [{"type": "string", "format": "uuid", "description": "Contact ID (UUID)", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "501": {"description": "Not implemented", "schema": {"$ref": "#/definitions/response.Envelope"}}
                }
            }
        }
    },
    "definitions": {
        "handlers.ContactRequest": {
            "type": "object",
            "required": ["email", "name"],
            "properties": {
                "age": {"type": "integer", "maximum": 150, "minimum": 0, "example": 36},
                "email": {"type": "string", "maxLength": 255, "example": "ada@example.com"},
                "name": {"type": "string", "maxLength": 255, "example": "Ada Lovelace"}
            }
        },
        "response.Envelope": {
            "type": "object",
            "properties": {
                "debug": {"type": "object"},
                "message": {"type": "string", "example": "Ok"},
                "payload": {},
                "success": {"type": "boolean", "example": true}
            }
        },
        "transformers.FieldError": {
            "type": "object",
            "properties": {
                "field": {"type": "string", "example": "email"},
                "message": {"type": "string", "example": "required"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Contacts API",
	Description:      "Reference host for the JSON response envelope: every endpoint answers {success, message, payload}.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
