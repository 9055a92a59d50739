// Package docs holds the OpenAPI document served under /swagger/. It follows
// the layout swag init produces from the handler annotations.
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
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["system"],
                "summary": "Health check",
                "responses": {
                    "200": {"description": "Service healthy", "schema": {"$ref": "#/definitions/handlers.HealthResponse"}},
                    "503": {"description": "A dependency is unreachable", "schema": {"$ref": "#/definitions/handlers.HealthResponse"}}
                }
            }
        },
        "/api/programs/{activityId}/csv": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["programs"],
                "summary": "Upload a program CSV",
                "parameters": [
                    {"type": "string", "name": "activityId", "in": "path", "required": true},
                    {"type": "file", "name": "file", "in": "formData", "required": true},
                    {"type": "string", "enum": ["fitness", "nutrition"], "name": "type", "in": "formData"},
                    {"type": "string", "enum": ["append", "replace"], "name": "mode", "in": "formData"}
                ],
                "responses": {
                    "201": {"description": "Parsed session", "schema": {"$ref": "#/definitions/handlers.UploadResponse"}},
                    "400": {"description": "Invalid form or unreadable CSV", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "403": {"description": "Caller is not a coach", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "429": {"description": "Too many uploads", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/api/programs/csv/{sessionId}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["programs"],
                "summary": "Get an upload session",
                "parameters": [{"type": "string", "name": "sessionId", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "Session"},
                    "404": {"description": "Session not found", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "tags": ["programs"],
                "summary": "Discard an upload session",
                "parameters": [{"type": "string", "name": "sessionId", "in": "path", "required": true}],
                "responses": {
                    "204": {"description": "Session discarded"},
                    "404": {"description": "Session not found", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/api/programs/csv/{sessionId}/commit": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["programs"],
                "summary": "Commit an upload session",
                "parameters": [
                    {"type": "string", "name": "sessionId", "in": "path", "required": true},
                    {"name": "request", "in": "body", "schema": {"$ref": "#/definitions/handlers.CommitRequest"}}
                ],
                "responses": {
                    "200": {"description": "Rows written", "schema": {"$ref": "#/definitions/upload.Result"}},
                    "409": {"description": "Session has no parsed file", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "502": {"description": "The store rejected the upload", "schema": {"$ref": "#/definitions/upload.Result"}}
                }
            }
        },
        "/api/notifications": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["notifications"],
                "summary": "List meet notifications",
                "responses": {
                    "200": {"description": "Feed", "schema": {"$ref": "#/definitions/handlers.NotificationsResponse"}},
                    "502": {"description": "Store unavailable", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/api/notifications/calendar.ics": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["text/calendar"],
                "tags": ["notifications"],
                "summary": "Export notifications as iCalendar",
                "responses": {
                    "200": {"description": "iCalendar document", "schema": {"type": "string"}},
                    "204": {"description": "No events"}
                }
            }
        },
        "/api/notifications/{eventId}/rsvp": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["notifications"],
                "summary": "Answer an invitation",
                "parameters": [
                    {"type": "string", "name": "eventId", "in": "path", "required": true},
                    {"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.RSVPRequest"}}
                ],
                "responses": {
                    "200": {"description": "Refreshed feed", "schema": {"$ref": "#/definitions/handlers.NotificationsResponse"}},
                    "400": {"description": "Invalid status", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/api/notifications/{eventId}/reschedule": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["notifications"],
                "summary": "Answer a reschedule request",
                "parameters": [
                    {"type": "string", "name": "eventId", "in": "path", "required": true},
                    {"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.RescheduleResponseRequest"}}
                ],
                "responses": {
                    "200": {"description": "Refreshed feed", "schema": {"$ref": "#/definitions/handlers.NotificationsResponse"}},
                    "400": {"description": "Invalid response", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/api/wizard/steps": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["wizard"],
                "summary": "List wizard steps",
                "parameters": [{"type": "string", "enum": ["program", "workshop", "document"], "name": "type", "in": "query", "required": true}],
                "responses": {
                    "200": {"description": "Steps", "schema": {"$ref": "#/definitions/handlers.WizardState"}},
                    "400": {"description": "Unknown product type", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/api/wizard/navigate": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["wizard"],
                "summary": "Navigate the product wizard",
                "parameters": [{"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.NavigateRequest"}}],
                "responses": {
                    "200": {"description": "New position", "schema": {"$ref": "#/definitions/handlers.WizardState"}},
                    "400": {"description": "Invalid request", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "handlers.ErrorResponse": {
            "type": "object",
            "properties": {"error": {"type": "string"}}
        },
        "handlers.HealthResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string"},
                "checks": {"type": "object", "additionalProperties": {"type": "string"}},
                "uploadSessions": {"type": "integer"},
                "feeds": {"type": "integer"}
            }
        },
        "handlers.UploadResponse": {
            "type": "object",
            "properties": {"session": {"type": "object"}}
        },
        "handlers.CommitRequest": {
            "type": "object",
            "properties": {
                "mode": {"type": "string", "enum": ["append", "replace"]},
                "type": {"type": "string", "enum": ["fitness", "nutrition"]}
            }
        },
        "upload.Result": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "message": {"type": "string"},
                "inserted": {"type": "integer"},
                "skipped": {"type": "integer"},
                "priorRowsDeleted": {"type": "boolean"}
            }
        },
        "handlers.NotificationsResponse": {
            "type": "object",
            "properties": {
                "items": {"type": "array", "items": {"type": "object"}},
                "loadedAt": {"type": "string"},
                "loading": {"type": "boolean"},
                "error": {"type": "string"}
            }
        },
        "handlers.RSVPRequest": {
            "type": "object",
            "required": ["status"],
            "properties": {"status": {"type": "string", "enum": ["confirmed", "declined"]}}
        },
        "handlers.RescheduleResponseRequest": {
            "type": "object",
            "required": ["response"],
            "properties": {"response": {"type": "string", "enum": ["accepted", "rejected"]}}
        },
        "handlers.NavigateRequest": {
            "type": "object",
            "required": ["type", "action"],
            "properties": {
                "type": {"type": "string"},
                "editing": {"type": "boolean"},
                "current": {"type": "string"},
                "action": {"type": "string", "enum": ["start", "next", "back", "goto", "select"]},
                "step": {"type": "integer"},
                "selectType": {"type": "string"}
            }
        },
        "handlers.WizardState": {
            "type": "object",
            "properties": {
                "type": {"type": "string"},
                "steps": {"type": "array", "items": {"type": "string"}},
                "current": {"type": "string"},
                "currentNumber": {"type": "integer"},
                "total": {"type": "integer"},
                "moved": {"type": "boolean"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "coach-hub API",
	Description:      "Program CSV uploads, meet notifications and the product wizard.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
