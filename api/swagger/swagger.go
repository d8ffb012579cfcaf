package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "EduLane LMS API",
        "description": "Assessment scoring, progress aggregation and course analytics",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Auth", "description": "Authentication and session management"},
        {"name": "Courses", "description": "Course, module and resource management"},
        {"name": "Assessments", "description": "Assessment authoring and deadlines"},
        {"name": "Submissions", "description": "Student submissions and grading"},
        {"name": "Progress", "description": "Completion tracking and milestones"},
        {"name": "Analytics", "description": "Facilitator dashboard and summaries"},
        {"name": "Forum", "description": "Course discussions"},
        {"name": "Notifications", "description": "Student and facilitator inbox"},
        {"name": "Exports", "description": "Gradebook exports"}
    ],
    "paths": {
        "/health": {
            "get": {
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/ready": {
            "get": {
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "Ready"},
                    "503": {"description": "Degraded"}
                }
            }
        },
        "/auth/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Authenticate with email and password",
                "responses": {
                    "200": {"description": "Token pair", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/auth/refresh": {
            "post": {
                "tags": ["Auth"],
                "summary": "Exchange a refresh token for a new token pair",
                "responses": {
                    "200": {"description": "Token pair", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/courses": {
            "get": {
                "tags": ["Courses"],
                "summary": "List courses visible to the requester",
                "parameters": [
                    {"name": "search", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Courses", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Courses"],
                "summary": "Create a course",
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/courses/{id}/progress": {
            "get": {
                "tags": ["Progress"],
                "summary": "Aggregated course progress for a student",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "studentId", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Progress", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/assessments": {
            "post": {
                "tags": ["Assessments"],
                "summary": "Create an assessment",
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/assessments/extend-deadlines": {
            "post": {
                "tags": ["Assessments"],
                "summary": "Bulk-extend assessment deadlines",
                "responses": {
                    "200": {"description": "All extended"},
                    "207": {"description": "Partially extended"}
                }
            }
        },
        "/submissions": {
            "post": {
                "tags": ["Submissions"],
                "summary": "Submit answers for an assessment",
                "responses": {
                    "201": {"description": "Auto-graded submission", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Incomplete answers"},
                    "409": {"description": "Already submitted"}
                }
            }
        },
        "/submissions/bulk-adjust": {
            "post": {
                "tags": ["Submissions"],
                "summary": "Bulk-adjust graded submissions",
                "responses": {
                    "200": {"description": "All adjusted"},
                    "207": {"description": "Partially adjusted"}
                }
            }
        },
        "/analytics/dashboard": {
            "get": {
                "tags": ["Analytics"],
                "summary": "Facilitator analytics dashboard",
                "responses": {
                    "200": {"description": "Dashboard", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/analytics/summary": {
            "get": {
                "tags": ["Analytics"],
                "summary": "Facilitator summary statistics",
                "responses": {
                    "200": {"description": "Summary", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/courses/{id}/gradebook/export": {
            "post": {
                "tags": ["Exports"],
                "summary": "Export a course gradebook as CSV or PDF",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "format", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Signed download token", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
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
