package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Horario API",
        "description": "Weekly school timetable generation, optimization and conflict detection",
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
        {"name": "Timetable", "description": "Group timetables, teacher views and exports"},
        {"name": "Observability", "description": "Health, readiness and engine counters"}
    ],
    "paths": {
        "/timetable/levels/{levelId}/groups/{group}": {
            "get": {
                "tags": ["Timetable"],
                "summary": "Get a group's timetable",
                "parameters": [
                    {"$ref": "#/parameters/levelId"},
                    {"$ref": "#/parameters/group"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/GroupScheduleEnvelope"}},
                    "400": {"description": "Invalid level or group", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Timetable"],
                "summary": "Remove a group's timetable",
                "parameters": [
                    {"$ref": "#/parameters/levelId"},
                    {"$ref": "#/parameters/group"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetable/levels/{levelId}/groups/{group}/generate": {
            "post": {
                "tags": ["Timetable"],
                "summary": "Generate a group's weekly timetable",
                "description": "Rebuilds the group from its subject hours, teacher distribution and locked fixed blocks. Other groups are only read for teacher availability.",
                "parameters": [
                    {"$ref": "#/parameters/levelId"},
                    {"$ref": "#/parameters/group"},
                    {"name": "payload", "in": "body", "required": false, "schema": {"$ref": "#/definitions/GenerateRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/GroupScheduleEnvelope"}},
                    "400": {"description": "Invalid level or group", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "500": {"description": "Engine fault, stored timetable unchanged", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetable/levels/{levelId}/groups/{group}/optimize": {
            "post": {
                "tags": ["Timetable"],
                "summary": "Place a group's unassigned lessons",
                "parameters": [
                    {"$ref": "#/parameters/levelId"},
                    {"$ref": "#/parameters/group"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/GroupScheduleEnvelope"}}
                }
            }
        },
        "/timetable/levels/{levelId}/groups/{group}/blocks/{blockId}": {
            "patch": {
                "tags": ["Timetable"],
                "summary": "Move a block to an empty cell",
                "parameters": [
                    {"$ref": "#/parameters/levelId"},
                    {"$ref": "#/parameters/group"},
                    {"name": "blockId", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/MoveBlockRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/GroupScheduleEnvelope"}},
                    "404": {"description": "Unknown block", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "FIXED_BLOCK or CELL_OCCUPIED", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetable/levels/{levelId}/groups/{group}/export": {
            "get": {
                "tags": ["Timetable"],
                "summary": "Download a group's timetable",
                "produces": ["application/json", "text/csv", "application/pdf"],
                "parameters": [
                    {"$ref": "#/parameters/levelId"},
                    {"$ref": "#/parameters/group"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["json", "csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "Attachment", "schema": {"type": "file"}},
                    "400": {"description": "UNSUPPORTED_FORMAT", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetable/levels/{levelId}/subject-hours/clean": {
            "post": {
                "tags": ["Timetable"],
                "summary": "Normalize a level's subject names and drop duplicates",
                "parameters": [
                    {"$ref": "#/parameters/levelId"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetable/teachers/{teacherId}": {
            "get": {
                "tags": ["Timetable"],
                "summary": "Get a teacher's blocks across groups",
                "parameters": [
                    {"name": "teacherId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetable/teachers/{teacherId}/restrictions": {
            "get": {
                "tags": ["Timetable"],
                "summary": "Get a teacher's unavailable cells",
                "parameters": [
                    {"name": "teacherId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Timetable"],
                "summary": "Replace a teacher's unavailable cells",
                "parameters": [
                    {"name": "teacherId", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpsertRestrictionRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Cell outside the grid", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetable/levels/{levelId}/groups/{group}/fixed-blocks": {
            "get": {
                "tags": ["Timetable"],
                "summary": "List a group's fixed blocks",
                "parameters": [
                    {"name": "levelId", "in": "path", "required": true, "type": "string"},
                    {"name": "group", "in": "path", "required": true, "type": "string", "enum": ["A", "B", "C", "D", "E", "F"]}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Timetable"],
                "summary": "Pin a lesson to a cell",
                "description": "Locked blocks are seeded by the next generator run. A teacher may hold one locked block per cell across all groups.",
                "parameters": [
                    {"name": "levelId", "in": "path", "required": true, "type": "string"},
                    {"name": "group", "in": "path", "required": true, "type": "string", "enum": ["A", "B", "C", "D", "E", "F"]},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/FixedBlockRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Cell outside the grid", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Cell or teacher already locked", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetable/levels/{levelId}/groups/{group}/fixed-blocks/{blockId}": {
            "put": {
                "tags": ["Timetable"],
                "summary": "Replace a fixed block",
                "parameters": [
                    {"name": "levelId", "in": "path", "required": true, "type": "string"},
                    {"name": "group", "in": "path", "required": true, "type": "string", "enum": ["A", "B", "C", "D", "E", "F"]},
                    {"name": "blockId", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/FixedBlockRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Cell or teacher already locked", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Timetable"],
                "summary": "Remove a fixed block",
                "parameters": [
                    {"name": "levelId", "in": "path", "required": true, "type": "string"},
                    {"name": "group", "in": "path", "required": true, "type": "string", "enum": ["A", "B", "C", "D", "E", "F"]},
                    {"name": "blockId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetable/rules": {
            "get": {
                "tags": ["Timetable"],
                "summary": "List placement rules",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetable/rules/{ruleId}": {
            "put": {
                "tags": ["Timetable"],
                "summary": "Switch a placement rule on or off",
                "parameters": [
                    {"name": "ruleId", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateRuleRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Unknown rule", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetable/conflicts/audits": {
            "get": {
                "tags": ["Timetable"],
                "summary": "List the latest background conflict scans",
                "parameters": [
                    {"name": "limit", "in": "query", "type": "integer", "maximum": 100}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetable/conflicts": {
            "get": {
                "tags": ["Timetable"],
                "summary": "List conflicted cells across all groups",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetable/schedules": {
            "delete": {
                "tags": ["Timetable"],
                "summary": "Remove every timetable",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/metrics/summary": {
            "get": {
                "tags": ["Observability"],
                "summary": "Engine, cache and audit queue counters",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "parameters": {
        "levelId": {"name": "levelId", "in": "path", "required": true, "type": "string"},
        "group": {"name": "group", "in": "path", "required": true, "type": "string", "enum": ["A", "B", "C", "D", "E", "F"]}
    },
    "security": [
        {"BearerAuth": []}
    ],
    "definitions": {
        "Block": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "asignatura": {"type": "string"},
                "docenteId": {"type": "string"},
                "dia": {"type": "string"},
                "hora": {"type": "string"},
                "fijo": {"type": "boolean"}
            }
        },
        "Lesson": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "asignatura": {"type": "string"},
                "docenteId": {"type": "string"},
                "grupoKey": {"type": "string"}
            }
        },
        "Conflict": {
            "type": "object",
            "properties": {
                "grupoKey": {"type": "string"},
                "dia": {"type": "string"},
                "hora": {"type": "string"},
                "reasons": {"type": "array", "items": {"type": "string", "enum": ["teacher_double_booked", "subject_overload"]}}
            }
        },
        "GroupSchedule": {
            "type": "object",
            "properties": {
                "grupoKey": {"type": "string"},
                "bloques": {"type": "array", "items": {"$ref": "#/definitions/Block"}},
                "sinAsignar": {"type": "array", "items": {"$ref": "#/definitions/Lesson"}},
                "conflictos": {"type": "array", "items": {"$ref": "#/definitions/Conflict"}}
            }
        },
        "GenerateRequest": {
            "type": "object",
            "properties": {
                "shuffle": {"type": "boolean"},
                "seed": {"type": "integer", "format": "int64"}
            }
        },
        "MoveBlockRequest": {
            "type": "object",
            "required": ["dia", "hora"],
            "properties": {
                "dia": {"type": "string"},
                "hora": {"type": "string"}
            }
        },
        "UpsertRestrictionRequest": {
            "type": "object",
            "properties": {
                "noDisponible": {"type": "array", "items": {"type": "string", "example": "Lunes_07:00-07:50"}}
            }
        },
        "FixedBlockRequest": {
            "type": "object",
            "required": ["dia", "hora", "asignatura", "docenteId"],
            "properties": {
                "dia": {"type": "string", "example": "Lunes"},
                "hora": {"type": "string", "example": "07:00-07:50"},
                "asignatura": {"type": "string"},
                "docenteId": {"type": "string"},
                "bloqueado": {"type": "boolean", "default": true}
            }
        },
        "UpdateRuleRequest": {
            "type": "object",
            "required": ["activa"],
            "properties": {
                "activa": {"type": "boolean"}
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
                "meta": {"type": "object"}
            }
        },
        "GroupScheduleEnvelope": {
            "type": "object",
            "properties": {
                "data": {"$ref": "#/definitions/GroupSchedule"},
                "error": {"$ref": "#/definitions/APIError"}
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
