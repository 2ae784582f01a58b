// Package docs registers the OpenAPI document served under /swagger. It is
// maintained by hand in the layout swag init emits; running go generate from
// the module root rewrites it from the handler annotations.
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
        "/conversations": {
            "get": {
                "security": [{"BearerAuth": []}],
                "description": "Most recently active first",
                "produces": ["application/json"],
                "tags": ["conversations"],
                "summary": "List the caller's conversations",
                "parameters": [
                    {"type": "integer", "description": "Page, starting at 1", "name": "page", "in": "query"},
                    {"type": "integer", "description": "Page size, at most 100", "name": "size", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Response"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/models.Response"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/models.Response"}}
                }
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Returns the conversation between the caller and receiver_id, creating it on first contact",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["conversations"],
                "summary": "Find or create a conversation",
                "parameters": [
                    {"description": "Receiver", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/models.CreateConversationRequestBody"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Response"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/models.Response"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/models.Response"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/models.Response"}}
                }
            }
        },
        "/conversations/{id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "description": "Conversation view with its most recent messages",
                "produces": ["application/json"],
                "tags": ["conversations"],
                "summary": "Get a conversation",
                "parameters": [
                    {"type": "string", "description": "Conversation ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Response"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/models.Response"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/models.Response"}}
                }
            }
        },
        "/conversations/{id}/messages": {
            "get": {
                "security": [{"BearerAuth": []}],
                "description": "Page 1 holds the newest messages; each page is ordered oldest first",
                "produces": ["application/json"],
                "tags": ["messages"],
                "summary": "List messages of a conversation",
                "parameters": [
                    {"type": "string", "description": "Conversation ID", "name": "id", "in": "path", "required": true},
                    {"type": "integer", "description": "Page, starting at 1", "name": "page", "in": "query"},
                    {"type": "integer", "description": "Page size, at most 100", "name": "size", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Response"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/models.Response"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/models.Response"}}
                }
            }
        },
        "/messages": {
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Stores the message and notifies the other member",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["messages"],
                "summary": "Send a message",
                "parameters": [
                    {"description": "Message", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/models.MessageRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Response"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/models.Response"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/models.Response"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/models.Response"}}
                }
            }
        },
        "/messages/{id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["messages"],
                "summary": "Get a message",
                "parameters": [
                    {"type": "string", "description": "Message ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Response"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/models.Response"}}
                }
            }
        },
        "/notifications": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["notifications"],
                "summary": "List the caller's notifications",
                "parameters": [
                    {"type": "integer", "description": "Page, starting at 1", "name": "page", "in": "query"},
                    {"type": "integer", "description": "Page size, at most 100", "name": "size", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Response"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/models.Response"}}
                }
            }
        },
        "/notifications/read": {
            "patch": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["notifications"],
                "summary": "Mark notifications as read",
                "parameters": [
                    {"description": "Notification IDs", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/models.MarkNotificationsReadRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Response"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/models.Response"}}
                }
            }
        }
    },
    "definitions": {
        "models.CreateConversationRequestBody": {
            "type": "object",
            "required": ["receiver_id"],
            "properties": {
                "receiver_id": {"type": "string"}
            }
        },
        "models.MarkNotificationsReadRequest": {
            "type": "object",
            "properties": {
                "ids": {"type": "array", "items": {"type": "string"}}
            }
        },
        "models.MessageRequest": {
            "type": "object",
            "required": ["conversation_id"],
            "properties": {
                "content": {"type": "string"},
                "conversation_id": {"type": "string"}
            }
        },
        "models.Response": {
            "type": "object",
            "properties": {
                "data": {},
                "errors": {"type": "array", "items": {"type": "string"}},
                "message": {"type": "string"},
                "success": {"type": "boolean"}
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
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Market Chat API",
	Description:      "Buyer and seller conversations, messages and notifications.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
