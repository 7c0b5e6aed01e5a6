package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Lumitrack API",
        "description": "Behavior data collection and graphing service",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Authentication", "description": "Login, tokens and passwords"},
        {"name": "Clients", "description": "Client records"},
        {"name": "Sharing", "description": "Client membership and roles"},
        {"name": "Programs", "description": "Behavior programs under a client"},
        {"name": "Targets", "description": "Measured targets under a program"},
        {"name": "Observations", "description": "Recorded data points"},
        {"name": "Graphs", "description": "Aggregated chart data"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Login",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/auth/refresh": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Rotate tokens",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/clients": {
            "get": {
                "tags": ["Clients"],
                "summary": "List clients visible to the caller",
                "parameters": [
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Clients"],
                "summary": "Register client",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateClientRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/clients/{client_id}": {
            "get": {
                "tags": ["Clients"],
                "summary": "Get client",
                "parameters": [
                    {"name": "client_id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Clients"],
                "summary": "Update client",
                "parameters": [
                    {"name": "client_id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateClientRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Clients"],
                "summary": "Delete client and all descendant records",
                "parameters": [
                    {"name": "client_id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/clients/{client_id}/members": {
            "get": {
                "tags": ["Sharing"],
                "summary": "List members",
                "parameters": [
                    {"name": "client_id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Sharing"],
                "summary": "Share client with a user by email",
                "parameters": [
                    {"name": "client_id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AddMemberRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/clients/{client_id}/members/{user_id}": {
            "put": {
                "tags": ["Sharing"],
                "summary": "Change member role",
                "parameters": [
                    {"name": "client_id", "in": "path", "required": true, "type": "string"},
                    {"name": "user_id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateMemberRequest"}}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            },
            "delete": {
                "tags": ["Sharing"],
                "summary": "Remove member",
                "parameters": [
                    {"name": "client_id", "in": "path", "required": true, "type": "string"},
                    {"name": "user_id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/clients/{client_id}/programs": {
            "get": {
                "tags": ["Programs"],
                "summary": "List programs",
                "parameters": [
                    {"name": "client_id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Programs"],
                "summary": "Create program",
                "parameters": [
                    {"name": "client_id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateProgramRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/clients/{client_id}/programs/{program_id}/targets": {
            "get": {
                "tags": ["Targets"],
                "summary": "List targets",
                "parameters": [
                    {"name": "client_id", "in": "path", "required": true, "type": "string"},
                    {"name": "program_id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Targets"],
                "summary": "Create target",
                "parameters": [
                    {"name": "client_id", "in": "path", "required": true, "type": "string"},
                    {"name": "program_id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateTargetRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/clients/{client_id}/programs/{program_id}/targets/{target_id}/observations": {
            "get": {
                "tags": ["Observations"],
                "summary": "List observations",
                "parameters": [
                    {"name": "client_id", "in": "path", "required": true, "type": "string"},
                    {"name": "program_id", "in": "path", "required": true, "type": "string"},
                    {"name": "target_id", "in": "path", "required": true, "type": "string"},
                    {"name": "date_from", "in": "query", "type": "string"},
                    {"name": "date_to", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Observations"],
                "summary": "Record observation",
                "parameters": [
                    {"name": "client_id", "in": "path", "required": true, "type": "string"},
                    {"name": "program_id", "in": "path", "required": true, "type": "string"},
                    {"name": "target_id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ObservationInput"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "patch": {
                "tags": ["Observations"],
                "summary": "Adjust a counter by delta",
                "parameters": [
                    {"name": "client_id", "in": "path", "required": true, "type": "string"},
                    {"name": "program_id", "in": "path", "required": true, "type": "string"},
                    {"name": "target_id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ObservationInput"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/clients/{client_id}/programs/{program_id}/targets/{target_id}/graph": {
            "get": {
                "tags": ["Graphs"],
                "summary": "Build graph for an interval",
                "parameters": [
                    {"name": "client_id", "in": "path", "required": true, "type": "string"},
                    {"name": "program_id", "in": "path", "required": true, "type": "string"},
                    {"name": "target_id", "in": "path", "required": true, "type": "string"},
                    {"name": "interval", "in": "query", "type": "string", "enum": ["D", "W", "M", "Y"]}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/clients/{client_id}/programs/{program_id}/targets/{target_id}/summary": {
            "get": {
                "tags": ["Targets"],
                "summary": "Previous-day headline figure",
                "parameters": [
                    {"name": "client_id", "in": "path", "required": true, "type": "string"},
                    {"name": "program_id", "in": "path", "required": true, "type": "string"},
                    {"name": "target_id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/clients/{client_id}/programs/{program_id}/targets/{target_id}/export": {
            "get": {
                "tags": ["Targets"],
                "summary": "Download observation history",
                "produces": ["application/octet-stream"],
                "parameters": [
                    {"name": "client_id", "in": "path", "required": true, "type": "string"},
                    {"name": "program_id", "in": "path", "required": true, "type": "string"},
                    {"name": "target_id", "in": "path", "required": true, "type": "string"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "File"}
                }
            }
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            },
            "required": ["email", "password"]
        },
        "CreateClientRequest": {
            "type": "object",
            "properties": {
                "first_name": {"type": "string"},
                "last_name": {"type": "string"},
                "date_of_birth": {"type": "string"},
                "notes": {"type": "string"}
            },
            "required": ["first_name", "last_name"]
        },
        "UpdateClientRequest": {
            "type": "object",
            "properties": {
                "first_name": {"type": "string"},
                "last_name": {"type": "string"},
                "date_of_birth": {"type": "string"},
                "notes": {"type": "string"}
            }
        },
        "AddMemberRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "role": {"type": "string", "enum": ["owner", "admin", "user"]}
            },
            "required": ["email"]
        },
        "UpdateMemberRequest": {
            "type": "object",
            "properties": {
                "role": {"type": "string", "enum": ["owner", "admin", "user"]}
            },
            "required": ["role"]
        },
        "CreateProgramRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "description": {"type": "string"}
            },
            "required": ["name"]
        },
        "CreateTargetRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "data_type": {"type": "string"},
                "description": {"type": "string"},
                "start_date": {"type": "string"},
                "steps": {"type": "array", "items": {"type": "string"}}
            },
            "required": ["name", "data_type"]
        },
        "ObservationInput": {
            "type": "object",
            "properties": {
                "date": {"type": "string"},
                "timezone": {"type": "string"},
                "data": {"type": "string"},
                "orig_data": {"type": "string"},
                "correct": {"type": "string"},
                "incorrect": {"type": "string"},
                "counting_time": {"type": "string"},
                "steps": {"type": "array", "items": {"type": "string"}}
            },
            "required": ["date"]
        },
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
