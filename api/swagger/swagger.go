package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Club API",
        "description": "Course scheduling, resource reservations and enrollments for a sports club.",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Courses", "description": "Recurring course schedules"},
        {"name": "Enrollments", "description": "Course capacity and member enrollments"},
        {"name": "Reservations", "description": "Single-window resource bookings"}
    ],
    "paths": {
        "/courses": {
            "post": {
                "tags": ["Courses"],
                "summary": "Create a course and commit its weekly schedule",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ScheduleRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Resource conflict", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/courses/{id}": {
            "get": {
                "tags": ["Courses"],
                "summary": "Get a course with its pricing tiers",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Courses"],
                "summary": "Replace a course schedule",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ScheduleRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Resource conflict", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Courses"],
                "summary": "Delete a course and release its bookings",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/courses/{id}/schedule": {
            "get": {
                "tags": ["Courses"],
                "summary": "List the generated occurrences of a course",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/courses/{id}/schedule/export": {
            "get": {
                "tags": ["Courses"],
                "summary": "Download the course schedule",
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "File", "schema": {"type": "file"}}
                }
            }
        },
        "/courses/{id}/availability": {
            "get": {
                "tags": ["Enrollments"],
                "summary": "Check whether a course can take another enrollee",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "weekday", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/courses/{id}/enrollments": {
            "post": {
                "tags": ["Enrollments"],
                "summary": "Enroll a member into a course",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/EnrollRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Capacity exceeded or duplicate", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/enrollments/{id}": {
            "delete": {
                "tags": ["Enrollments"],
                "summary": "Cancel an enrollment",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/reservations": {
            "post": {
                "tags": ["Reservations"],
                "summary": "Book a resource for one window",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/BookResourceRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Resource conflict", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/reservations/{id}": {
            "delete": {
                "tags": ["Reservations"],
                "summary": "Release a member reservation",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "412": {"description": "Owned by a course", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "WeeklySlotRequest": {
            "type": "object",
            "required": ["weekday", "start_time", "end_time", "resource"],
            "properties": {
                "weekday": {"type": "string", "example": "MONDAY"},
                "start_time": {"type": "string", "example": "18:00"},
                "end_time": {"type": "string", "example": "19:00"},
                "resource": {"type": "string", "example": "Court 1"}
            }
        },
        "PricingTierRequest": {
            "type": "object",
            "properties": {
                "days_per_week": {"type": "integer"},
                "member_price": {"type": "number"},
                "guest_price": {"type": "number"}
            }
        },
        "ScheduleRequest": {
            "type": "object",
            "required": ["name", "start_date", "end_date", "kind", "slots"],
            "properties": {
                "name": {"type": "string"},
                "description": {"type": "string"},
                "start_date": {"type": "string", "example": "2025-01-01"},
                "end_date": {"type": "string", "example": "2025-01-31"},
                "capacity": {"type": "integer", "description": "0 means unlimited"},
                "kind": {"type": "string", "enum": ["FIXED", "FLEXIBLE"]},
                "allow_outsiders": {"type": "boolean"},
                "slots": {"type": "array", "items": {"$ref": "#/definitions/WeeklySlotRequest"}},
                "pricing_tiers": {"type": "array", "items": {"$ref": "#/definitions/PricingTierRequest"}}
            }
        },
        "EnrollRequest": {
            "type": "object",
            "required": ["member_id", "member_email"],
            "properties": {
                "member_id": {"type": "string"},
                "member_email": {"type": "string"},
                "member_name": {"type": "string"},
                "weekdays": {"type": "array", "items": {"type": "string"}}
            }
        },
        "BookResourceRequest": {
            "type": "object",
            "required": ["resource", "date", "start_time", "end_time", "member_id"],
            "properties": {
                "resource": {"type": "string"},
                "date": {"type": "string", "example": "2025-01-13"},
                "start_time": {"type": "string"},
                "end_time": {"type": "string"},
                "member_id": {"type": "string"},
                "capacity": {"type": "integer"},
                "allow_outsiders": {"type": "boolean"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"},
                "details": {"type": "object"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
