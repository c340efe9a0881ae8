// Package docs registers the OpenAPI document served under /swagger.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/health": {
            "get": {"tags": ["Health"], "summary": "Health Check", "produces": ["application/json"], "responses": {"200": {"description": "OK"}}}
        },
        "/ledgers/{category}": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["Ledger"], "summary": "List Ledger", "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "name": "category", "in": "path", "required": true},
                    {"type": "integer", "name": "year", "in": "query", "required": true},
                    {"type": "integer", "name": "month", "in": "query", "required": true},
                    {"type": "string", "name": "cutoff", "in": "query", "required": true},
                    {"type": "string", "name": "search", "in": "query"},
                    {"type": "string", "name": "department", "in": "query"},
                    {"type": "string", "name": "status", "in": "query"},
                    {"type": "integer", "name": "page", "in": "query"},
                    {"type": "integer", "name": "per_page", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}}
        },
        "/ledgers/{category}/status": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["Ledger"], "summary": "Ledger Status Counts", "responses": {"200": {"description": "OK"}}}
        },
        "/ledgers/{category}/export": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["Ledger"], "summary": "Export Ledger", "produces": ["application/octet-stream"], "responses": {"200": {"description": "OK"}}}
        },
        "/ledgers/{category}/entries": {
            "post": {"security": [{"BearerAuth": []}], "tags": ["Ledger"], "summary": "Create Entry From Default", "responses": {"200": {"description": "OK"}, "201": {"description": "Created"}}}
        },
        "/ledgers/{category}/cells": {
            "put": {"security": [{"BearerAuth": []}], "tags": ["Ledger"], "summary": "Edit Cell", "responses": {"200": {"description": "OK"}, "409": {"description": "Conflict"}}}
        },
        "/ledgers/{category}/entries/{entry_id}": {
            "patch": {"security": [{"BearerAuth": []}], "tags": ["Ledger"], "summary": "Patch Entry Field", "responses": {"200": {"description": "OK"}, "409": {"description": "Conflict"}}}
        },
        "/ledgers/{category}/entries/{entry_id}/post": {
            "post": {"security": [{"BearerAuth": []}], "tags": ["Ledger"], "summary": "Post Entry", "responses": {"200": {"description": "OK"}, "409": {"description": "Conflict"}}}
        },
        "/ledgers/{category}/entries/{entry_id}/set_default": {
            "post": {"security": [{"BearerAuth": []}], "tags": ["Ledger"], "summary": "Set Entry As Default", "responses": {"200": {"description": "OK"}, "409": {"description": "Conflict"}}}
        },
        "/ledgers/{category}/templates/{employee_id}": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["Ledger"], "summary": "Get Default Template", "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}}
        },
        "/ledgers/{category}/bulk_create": {
            "post": {"security": [{"BearerAuth": []}], "tags": ["Ledger Bulk"], "summary": "Bulk Create Entries", "responses": {"200": {"description": "OK"}}}
        },
        "/ledgers/{category}/bulk_post": {
            "post": {"security": [{"BearerAuth": []}], "tags": ["Ledger Bulk"], "summary": "Bulk Post Entries", "responses": {"200": {"description": "OK"}}}
        },
        "/ledgers/{category}/post_all": {
            "post": {"security": [{"BearerAuth": []}], "tags": ["Ledger Bulk"], "summary": "Post All Entries", "responses": {"200": {"description": "OK"}}}
        },
        "/ledgers/{category}/bulk_set_default": {
            "post": {"security": [{"BearerAuth": []}], "tags": ["Ledger Bulk"], "summary": "Bulk Set Default", "responses": {"200": {"description": "OK"}}}
        },
        "/jobs/status": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["Jobs"], "summary": "Get background job status", "responses": {"200": {"description": "OK"}}}
        },
        "/jobs/auto_seed": {
            "post": {"security": [{"BearerAuth": []}], "tags": ["Jobs"], "summary": "Run auto seed now", "responses": {"202": {"description": "Accepted"}}}
        }
    },
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/api/v1",
	Schemes:          []string{"http"},
	Title:            "Payroll Ledger API",
	Description:      "Per-cutoff benefits and deductions ledger with default templates and posting",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
