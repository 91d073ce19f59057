// Package docs holds the generated OpenAPI description of the HTTP API.
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
        "/healthz": {
            "get": {
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Liveness check",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/readyz": {
            "get": {
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "OK"},
                    "503": {"description": "Database unavailable"}
                }
            }
        },
        "/splits": {
            "get": {
                "produces": ["application/json"],
                "tags": ["splits"],
                "summary": "List split runs",
                "parameters": [
                    {"type": "integer", "default": 0, "description": "Offset for pagination", "name": "offset", "in": "query"},
                    {"type": "integer", "default": 20, "description": "Limit for pagination (max 100)", "name": "limit", "in": "query"}
                ],
                "responses": {"200": {"description": "Run summaries"}}
            },
            "post": {
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["splits"],
                "summary": "Split a PDF",
                "parameters": [
                    {"type": "file", "description": "PDF to split", "name": "file", "in": "formData", "required": true},
                    {"type": "boolean", "description": "Export sections to the configured sink", "name": "export", "in": "formData"}
                ],
                "responses": {
                    "201": {"description": "Split run"},
                    "400": {"description": "Missing file or unsupported type"},
                    "413": {"description": "File too large"},
                    "422": {"description": "Unreadable document"}
                }
            }
        },
        "/splits/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["splits"],
                "summary": "Get a split run",
                "parameters": [{"type": "string", "description": "Run ID", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "Split run"}, "404": {"description": "Not found"}}
            },
            "delete": {
                "produces": ["application/json"],
                "tags": ["splits"],
                "summary": "Delete a split run",
                "parameters": [{"type": "string", "description": "Run ID", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "Deleted"}, "404": {"description": "Not found"}}
            }
        },
        "/splits/{id}/sections/{index}": {
            "patch": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["splits"],
                "summary": "Override a section's type or filename",
                "parameters": [
                    {"type": "string", "description": "Run ID", "name": "id", "in": "path", "required": true},
                    {"type": "integer", "description": "Zero-based section index", "name": "index", "in": "path", "required": true},
                    {"description": "Override", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.UpdateSectionRequest"}}
                ],
                "responses": {
                    "200": {"description": "Updated run"},
                    "400": {"description": "Invalid request"},
                    "404": {"description": "Run or section not found"}
                }
            }
        },
        "/splits/{id}/manifest": {
            "get": {
                "produces": ["text/csv", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"],
                "tags": ["splits"],
                "summary": "Download the run manifest",
                "parameters": [
                    {"type": "string", "description": "Run ID", "name": "id", "in": "path", "required": true},
                    {"type": "string", "default": "csv", "description": "csv or xlsx", "name": "format", "in": "query"}
                ],
                "responses": {"200": {"description": "Manifest file"}, "404": {"description": "Not found"}}
            }
        },
        "/corrections/report": {
            "get": {
                "description": "Per document type: how often users relabelled sections and the resulting confidence adjustment",
                "produces": ["application/json"],
                "tags": ["corrections"],
                "summary": "Correction accuracy report",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.AccuracyReport"}},
                    "500": {"description": "Internal Server Error"}
                }
            }
        }
    },
    "definitions": {
        "domain.AccuracyReport": {
            "type": "object",
            "properties": {
                "total_corrections": {"type": "integer"},
                "types": {"type": "array", "items": {"$ref": "#/definitions/domain.TypeAccuracy"}}
            }
        },
        "domain.Alternative": {
            "type": "object",
            "properties": {
                "document_type": {"type": "string"},
                "rate": {"type": "number"}
            }
        },
        "domain.TypeAccuracy": {
            "type": "object",
            "properties": {
                "accuracy_rate": {"type": "number"},
                "alternatives": {"type": "array", "items": {"$ref": "#/definitions/domain.Alternative"}},
                "confidence_adjustment": {"type": "number"},
                "correction_rate": {"type": "number"},
                "document_type": {"type": "string"},
                "most_corrected_to": {"type": "string"},
                "most_corrected_to_rate": {"type": "number"},
                "total_classifications": {"type": "integer"},
                "total_corrections": {"type": "integer"}
            }
        },
        "handler.UpdateSectionRequest": {
            "type": "object",
            "properties": {
                "document_type": {"type": "string"},
                "filename": {"type": "string"}
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
	Title:            "SmartSplit API",
	Description:      "Splits multi-document PDF bundles into classified, named sections.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
