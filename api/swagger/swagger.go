package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "KKN Placement API",
        "description": "Placement lifecycle and review workflow engine for community service field placements",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Registrations", "description": "Registration lifecycle and review"},
        {"name": "Teams", "description": "Team formation and rosters"},
        {"name": "Reports", "description": "Weekly and final report review cycle"},
        {"name": "Grades", "description": "Final grading and certificates"},
        {"name": "Templates", "description": "Required document templates"}
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
        "/api/v1/registrations": {
            "get": {
                "tags": ["Registrations"],
                "summary": "List registrations",
                "parameters": [
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "period_id", "in": "query", "type": "string"},
                    {"name": "location_id", "in": "query", "type": "string"},
                    {"name": "limit", "in": "query", "type": "integer"},
                    {"name": "offset", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Registrations"],
                "summary": "Submit registration",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateRegistrationRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Duplicate registration"},
                    "422": {"description": "Period closed"}
                }
            }
        },
        "/api/v1/registrations/{id}": {
            "get": {
                "tags": ["Registrations"],
                "summary": "Get registration",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/registrations/{id}/review": {
            "post": {
                "tags": ["Registrations"],
                "summary": "Review registration",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ReviewRegistrationRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Conflicting update"},
                    "412": {"description": "Incomplete documents"}
                }
            }
        },
        "/api/v1/registrations/{id}/resubmit": {
            "post": {
                "tags": ["Registrations"],
                "summary": "Resubmit after revision request",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/registrations/{id}/comments": {
            "post": {
                "tags": ["Registrations"],
                "summary": "Post guidance comment",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CommentRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/registrations/{id}/documents": {
            "get": {
                "tags": ["Registrations"],
                "summary": "List documents with completeness summary",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Registrations"],
                "summary": "Record uploaded document metadata",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UploadDocumentRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/registrations/{id}/completeness": {
            "get": {
                "tags": ["Registrations"],
                "summary": "Document completeness summary",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/registrations/{id}/audit": {
            "get": {
                "tags": ["Registrations"],
                "summary": "Audit trail",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/registrations/{id}/audit/export": {
            "get": {
                "tags": ["Registrations"],
                "summary": "Export audit trail",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "File content"}
                }
            }
        },
        "/api/v1/registrations/{id}/grade": {
            "get": {
                "tags": ["Grades"],
                "summary": "Get grade",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Grades"],
                "summary": "Assign grade and issue certificate",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AssignGradeRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Certificate number in use"},
                    "412": {"description": "Team not completed"}
                }
            }
        },
        "/api/v1/registrations/{id}/grade/certificate": {
            "get": {
                "tags": ["Grades"],
                "summary": "Signed certificate download link",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/teams": {
            "get": {
                "tags": ["Teams"],
                "summary": "List teams",
                "parameters": [
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "period_id", "in": "query", "type": "string"},
                    {"name": "location_id", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Teams"],
                "summary": "Form team",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateTeamRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Location already has a team for the period"}
                }
            }
        },
        "/api/v1/teams/{id}": {
            "get": {
                "tags": ["Teams"],
                "summary": "Get team with roster",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/teams/{id}/officer-status": {
            "get": {
                "tags": ["Teams"],
                "summary": "Officer completeness",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/teams/{id}/members": {
            "post": {
                "tags": ["Teams"],
                "summary": "Add member",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AddMemberRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Duplicate membership"}
                }
            }
        },
        "/api/v1/teams/{id}/members/{memberId}": {
            "delete": {
                "tags": ["Teams"],
                "summary": "Withdraw member",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "memberId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/api/v1/teams/{id}/activate": {
            "post": {
                "tags": ["Teams"],
                "summary": "Activate team",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "412": {"description": "Officer positions unfilled"}
                }
            }
        },
        "/api/v1/teams/{id}/complete": {
            "post": {
                "tags": ["Teams"],
                "summary": "Complete team",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "412": {"description": "Unfinished reports remain"}
                }
            }
        },
        "/api/v1/teams/{id}/reports": {
            "get": {
                "tags": ["Reports"],
                "summary": "List team reports",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "type", "in": "query", "type": "string"},
                    {"name": "status", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Reports"],
                "summary": "Submit report",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SubmitReportRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Invalid week"}
                }
            }
        },
        "/api/v1/reports/{id}": {
            "get": {
                "tags": ["Reports"],
                "summary": "Get report with attachments",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/reports/{id}/evaluate": {
            "post": {
                "tags": ["Reports"],
                "summary": "Evaluate report",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/EvaluateReportRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Conflicting update"}
                }
            }
        },
        "/api/v1/reports/{id}/resubmit": {
            "post": {
                "tags": ["Reports"],
                "summary": "Resubmit revised report",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/reports/{id}/history": {
            "get": {
                "tags": ["Reports"],
                "summary": "Report review history",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/certificates/download": {
            "get": {
                "tags": ["Grades"],
                "summary": "Download certificate by signed token",
                "parameters": [
                    {"name": "token", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "PDF content"},
                    "401": {"description": "Invalid or expired token"}
                }
            }
        },
        "/api/v1/periods/{id}": {
            "get": {
                "tags": ["Templates"],
                "summary": "Get placement period",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/periods/{id}/templates": {
            "get": {
                "tags": ["Templates"],
                "summary": "List document templates for a period",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/templates": {
            "put": {
                "tags": ["Templates"],
                "summary": "Create or update a document template",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpsertTemplateRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "Registration": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "student_id": {"type": "string"},
                "location_id": {"type": "string"},
                "period_id": {"type": "string"},
                "category": {"type": "string"},
                "status": {"type": "string"},
                "notes": {"type": "string"},
                "reviewer_id": {"type": "string"},
                "reviewed_at": {"type": "string"},
                "advisor_id": {"type": "string"},
                "team_id": {"type": "string"},
                "created_at": {"type": "string"},
                "updated_at": {"type": "string"}
            }
        },
        "Team": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"},
                "location_id": {"type": "string"},
                "period_id": {"type": "string"},
                "advisor_id": {"type": "string"},
                "status": {"type": "string"},
                "start_date": {"type": "string"},
                "end_date": {"type": "string"}
            }
        },
        "Report": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "team_id": {"type": "string"},
                "author_id": {"type": "string"},
                "author_role": {"type": "string"},
                "type": {"type": "string"},
                "week": {"type": "integer"},
                "title": {"type": "string"},
                "status": {"type": "string"},
                "submitted_at": {"type": "string"}
            }
        },
        "Grade": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "registration_id": {"type": "string"},
                "letter": {"type": "string"},
                "score": {"type": "number"},
                "certificate_number": {"type": "string"},
                "certificate_path": {"type": "string"},
                "graded_by": {"type": "string"},
                "graded_at": {"type": "string"}
            }
        },
        "CreateRegistrationRequest": {
            "type": "object",
            "properties": {
                "location_id": {"type": "string"},
                "period_id": {"type": "string"},
                "category": {"type": "string"}
            },
            "required": ["location_id", "period_id"]
        },
        "ReviewRegistrationRequest": {
            "type": "object",
            "properties": {
                "decision": {"type": "string"},
                "note": {"type": "string"},
                "override": {"type": "boolean"}
            },
            "required": ["decision"]
        },
        "CommentRequest": {
            "type": "object",
            "properties": {
                "note": {"type": "string"}
            },
            "required": ["note"]
        },
        "UploadDocumentRequest": {
            "type": "object",
            "properties": {
                "doc_type": {"type": "string"},
                "file_name": {"type": "string"},
                "storage_key": {"type": "string"},
                "mime_type": {"type": "string"}
            },
            "required": ["doc_type", "file_name", "storage_key"]
        },
        "CreateTeamRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "location_id": {"type": "string"},
                "period_id": {"type": "string"},
                "advisor_id": {"type": "string"}
            },
            "required": ["name", "location_id", "period_id"]
        },
        "AddMemberRequest": {
            "type": "object",
            "properties": {
                "student_id": {"type": "string"},
                "registration_id": {"type": "string"},
                "position": {"type": "string"}
            },
            "required": ["student_id", "position"]
        },
        "SubmitReportRequest": {
            "type": "object",
            "properties": {
                "type": {"type": "string"},
                "week": {"type": "integer"},
                "title": {"type": "string"},
                "description": {"type": "string"},
                "attachments": {
                    "type": "array",
                    "items": {"type": "object"}
                }
            },
            "required": ["type", "title"]
        },
        "EvaluateReportRequest": {
            "type": "object",
            "properties": {
                "decision": {"type": "string"},
                "note": {"type": "string"}
            },
            "required": ["decision"]
        },
        "AssignGradeRequest": {
            "type": "object",
            "properties": {
                "letter": {"type": "string"},
                "score": {"type": "number"},
                "certificate_number": {"type": "string"}
            },
            "required": ["letter", "certificate_number"]
        },
        "UpsertTemplateRequest": {
            "type": "object",
            "properties": {
                "slug": {"type": "string"},
                "name": {"type": "string"},
                "period_id": {"type": "string"},
                "required": {"type": "boolean"}
            },
            "required": ["slug", "name"]
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
