package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "SIGEA API",
        "description": "Enrollment and grade-finalization service",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Auth", "description": "Authentication and session management"},
        {"name": "Periods", "description": "Academic period calendar"},
        {"name": "PreEnrollments", "description": "Declared enrollment intent"},
        {"name": "Enrollments", "description": "Official enrollments and lines"},
        {"name": "Grades", "description": "Score entry and finalization"},
        {"name": "Criteria", "description": "Evaluation criteria per assignment"},
        {"name": "Actas", "description": "Grade record closure"},
        {"name": "Reports", "description": "Rosters and transcripts"},
        {"name": "Catalog", "description": "Programs, shifts and course units"},
        {"name": "CapacityRules", "description": "Enrollment capacity ceilings"}
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
        "/auth/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Authenticate a user",
                "responses": {
                    "200": {"description": "Tokens issued"},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/periods": {
            "get": {
                "tags": ["Periods"],
                "summary": "List academic periods",
                "responses": {
                    "200": {"description": "OK"}
                }
            },
            "post": {
                "tags": ["Periods"],
                "summary": "Create a period",
                "responses": {
                    "201": {"description": "Created"}
                }
            }
        },
        "/periods/{id}/activate": {
            "put": {
                "tags": ["Periods"],
                "summary": "Activate a period",
                "responses": {
                    "200": {"description": "Activated"}
                }
            }
        },
        "/pre-enrollments": {
            "get": {
                "tags": ["PreEnrollments"],
                "summary": "List pre-enrollments",
                "responses": {
                    "200": {"description": "OK"}
                }
            },
            "post": {
                "tags": ["PreEnrollments"],
                "summary": "Create a pre-enrollment",
                "responses": {
                    "201": {"description": "Created"}
                }
            }
        },
        "/pre-enrollments/{id}/review": {
            "put": {
                "tags": ["PreEnrollments"],
                "summary": "Resolve a pre-enrollment",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/enrollments": {
            "get": {
                "tags": ["Enrollments"],
                "summary": "List enrollments",
                "responses": {
                    "200": {"description": "OK"}
                }
            },
            "post": {
                "tags": ["Enrollments"],
                "summary": "Create an enrollment",
                "responses": {
                    "201": {"description": "Created"},
                    "409": {"description": "Duplicate or capacity exceeded"}
                }
            }
        },
        "/enrollments/promote": {
            "post": {
                "tags": ["Enrollments"],
                "summary": "Promote an approved pre-enrollment",
                "responses": {
                    "201": {"description": "Created"},
                    "412": {"description": "Pre-enrollment not approved"}
                }
            }
        },
        "/enrollments/{id}/status": {
            "put": {
                "tags": ["Enrollments"],
                "summary": "Update enrollment status",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/scores": {
            "post": {
                "tags": ["Grades"],
                "summary": "Record one score",
                "responses": {
                    "200": {"description": "Recorded"},
                    "400": {"description": "Score out of range"},
                    "409": {"description": "Line sealed"}
                }
            }
        },
        "/scores/batch": {
            "post": {
                "tags": ["Grades"],
                "summary": "Record scores in batch",
                "responses": {
                    "200": {"description": "Per-item outcomes"}
                }
            }
        },
        "/lines/{lineId}/finalize": {
            "post": {
                "tags": ["Grades"],
                "summary": "Finalize a line's grade",
                "responses": {
                    "200": {"description": "Final grade computed"},
                    "412": {"description": "No scores recorded"}
                }
            }
        },
        "/assignments": {
            "get": {
                "tags": ["Catalog"],
                "summary": "List teaching assignments",
                "responses": {
                    "200": {"description": "OK"}
                }
            },
            "post": {
                "tags": ["Catalog"],
                "summary": "Create a teaching assignment",
                "responses": {
                    "201": {"description": "Created"}
                }
            }
        },
        "/assignments/{id}/criteria": {
            "get": {
                "tags": ["Criteria"],
                "summary": "List evaluation criteria",
                "responses": {
                    "200": {"description": "OK"}
                }
            },
            "put": {
                "tags": ["Criteria"],
                "summary": "Replace evaluation criteria",
                "responses": {
                    "200": {"description": "Replaced"}
                }
            }
        },
        "/actas": {
            "get": {
                "tags": ["Actas"],
                "summary": "List actas",
                "responses": {
                    "200": {"description": "OK"}
                }
            },
            "post": {
                "tags": ["Actas"],
                "summary": "Close a teaching assignment's records",
                "responses": {
                    "201": {"description": "Closed"},
                    "412": {"description": "Final grades incomplete"}
                }
            }
        },
        "/actas/{id}/export": {
            "get": {
                "tags": ["Actas"],
                "summary": "Export an acta as CSV or PDF",
                "responses": {
                    "200": {"description": "File"}
                }
            }
        },
        "/reports/assignments/{id}/roster": {
            "get": {
                "tags": ["Reports"],
                "summary": "Grading roster for an assignment",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/reports/students/{id}/transcript": {
            "get": {
                "tags": ["Reports"],
                "summary": "Cross-period transcript for a student",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        }
    },
    "definitions": {
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
            }
        },
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
                "pagination": {"$ref": "#/definitions/Pagination"},
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
