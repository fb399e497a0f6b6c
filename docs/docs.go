// Package docs registers the Swagger document of NotesWebService, built from the
// annotations on the handlers.
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
        "/task/login": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Sign in",
                "parameters": [
                    {"description": "Credentials", "name": "credentials", "in": "body", "required": true, "schema": {"$ref": "#/definitions/models.User"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Token"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/response.Message"}}
                }
            }
        },
        "/task/logout": {
            "post": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Sign out",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}
                }
            }
        },
        "/task/create": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["tasks"],
                "summary": "Create a task",
                "parameters": [
                    {"description": "Task", "name": "task", "in": "body", "required": true, "schema": {"$ref": "#/definitions/models.Task"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/models.Task"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/response.Message"}}
                }
            }
        },
        "/task/getid/{id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["tasks"],
                "summary": "Get a task",
                "parameters": [
                    {"type": "integer", "description": "Task id", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Task"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/response.Message"}}
                }
            }
        },
        "/task/getAll": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["tasks"],
                "summary": "List tasks",
                "parameters": [
                    {"type": "string", "description": "Search in title and description", "name": "search", "in": "query"},
                    {"type": "string", "description": "all, active or completed", "name": "filter", "in": "query"},
                    {"type": "integer", "description": "Page number", "name": "page", "in": "query"},
                    {"type": "integer", "description": "Page size", "name": "pagesize", "in": "query"},
                    {"type": "string", "description": "Account id (admin only)", "name": "account", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/models.Task"}}}
                }
            }
        },
        "/task/update": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["tasks"],
                "summary": "Update a task",
                "parameters": [
                    {"description": "Changes", "name": "task", "in": "body", "required": true, "schema": {"$ref": "#/definitions/commands.UpdateTaskCommand"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Task"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/response.Message"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/response.Message"}}
                }
            }
        },
        "/task/complete": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["tasks"],
                "summary": "Complete a task",
                "parameters": [
                    {"description": "Task id", "name": "task", "in": "body", "required": true, "schema": {"$ref": "#/definitions/commands.TaskStatusCommand"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Task"}}
                }
            }
        },
        "/task/activate": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["tasks"],
                "summary": "Activate a task",
                "parameters": [
                    {"description": "Task id", "name": "task", "in": "body", "required": true, "schema": {"$ref": "#/definitions/commands.TaskStatusCommand"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Task"}}
                }
            }
        },
        "/task/delete": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["tasks"],
                "summary": "Delete a task",
                "parameters": [
                    {"description": "Task id", "name": "task", "in": "body", "required": true, "schema": {"$ref": "#/definitions/commands.DeleteTaskCommand"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}
                }
            }
        },
        "/task/clearCompleted": {
            "post": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["tasks"],
                "summary": "Clear completed tasks",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.ClearCompleted"}}
                }
            }
        },
        "/task/statistics": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["statistics"],
                "summary": "Task statistics",
                "parameters": [
                    {"type": "string", "description": "Account id (admin only)", "name": "account", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/statistics.Result"}}
                }
            }
        }
    },
    "definitions": {
        "commands.DeleteTaskCommand": {
            "type": "object",
            "required": ["id"],
            "properties": {"id": {"type": "integer"}}
        },
        "commands.TaskStatusCommand": {
            "type": "object",
            "required": ["id"],
            "properties": {"id": {"type": "integer"}}
        },
        "commands.UpdateTaskCommand": {
            "type": "object",
            "required": ["id"],
            "properties": {
                "completed": {"type": "boolean"},
                "description": {"type": "string"},
                "id": {"type": "integer"},
                "title": {"type": "string"}
            }
        },
        "models.Task": {
            "type": "object",
            "required": ["title"],
            "properties": {
                "accountId": {"type": "string"},
                "completed": {"type": "boolean"},
                "createdAt": {"type": "string"},
                "description": {"type": "string", "maxLength": 1000},
                "id": {"type": "integer"},
                "title": {"type": "string", "maxLength": 100, "minLength": 1}
            }
        },
        "models.User": {
            "type": "object",
            "required": ["password", "username"],
            "properties": {
                "accountId": {"type": "string"},
                "password": {"type": "string"},
                "role": {"type": "string"},
                "username": {"type": "string"}
            }
        },
        "response.ClearCompleted": {
            "type": "object",
            "properties": {
                "deleted": {"type": "integer"},
                "message": {"type": "string"}
            }
        },
        "response.Message": {
            "type": "object",
            "properties": {
                "Body": {"type": "string"},
                "Status": {"type": "string"}
            }
        },
        "response.Response": {
            "type": "object",
            "properties": {"message": {"type": "string"}}
        },
        "response.Token": {
            "type": "object",
            "properties": {"token": {"type": "string"}}
        },
        "statistics.Result": {
            "type": "object",
            "properties": {
                "activeTasksPercent": {"type": "number"},
                "completedTasksPercent": {"type": "number"}
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
	Title:            "NotesWebService API",
	Description:      "Per-account task lists with active/completed statistics.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
