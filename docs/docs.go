// Package docs registers the OpenAPI document served at /swagger/*.
// Regenerate with: swag init -g cmd/api/main.go -o docs
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
        "/auth/register": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["text/plain"],
                "tags": ["auth"],
                "summary": "Register a new user",
                "parameters": [
                    {"description": "User registration details", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.registerUserRequest"}}
                ],
                "responses": {
                    "201": {"description": "Register Success, please check your email", "schema": {"type": "string"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.errorResponse"}}
                }
            }
        },
        "/auth/login": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Login",
                "parameters": [
                    {"description": "Username or email, and password", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.loginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.loginResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.errorResponse"}}
                }
            }
        },
        "/auth/verify/{token}": {
            "patch": {
                "produces": ["text/plain"],
                "tags": ["auth"],
                "summary": "Verify an account",
                "parameters": [
                    {"type": "string", "description": "Verification token", "name": "token", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "Verify Success", "schema": {"type": "string"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.errorResponse"}}
                }
            }
        },
        "/auth/promotor/register": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["text/plain"],
                "tags": ["auth"],
                "summary": "Register a new promotor",
                "parameters": [
                    {"description": "Promotor registration details", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.registerPromotorRequest"}}
                ],
                "responses": {
                    "201": {"description": "Register Success", "schema": {"type": "string"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.errorResponse"}}
                }
            }
        },
        "/auth/promotor/login": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Promotor login",
                "parameters": [
                    {"description": "Name or email, and password", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.loginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.loginResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.errorResponse"}}
                }
            }
        },
        "/auth/promotor/verify/{token}": {
            "patch": {
                "produces": ["text/plain"],
                "tags": ["auth"],
                "summary": "Verify an account",
                "parameters": [
                    {"type": "string", "description": "Verification token", "name": "token", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "Verify Success", "schema": {"type": "string"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.errorResponse"}}
                }
            }
        },
        "/auth/session": {
            "get": {
                "security": [{"CookieAuth": []}],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Current session",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.sessionResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handler.errorResponse"}}
                }
            }
        },
        "/auth/logout": {
            "post": {
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Logout",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.messageResponse"}}
                }
            }
        },
        "/auth/password/forgot": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Request a password reset",
                "parameters": [
                    {"description": "Account type and username or email", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.forgotPasswordRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.messageResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.errorResponse"}}
                }
            }
        },
        "/auth/password/reset/{token}": {
            "patch": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Reset password",
                "parameters": [
                    {"type": "string", "description": "Reset token", "name": "token", "in": "path", "required": true},
                    {"description": "New password", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.resetPasswordRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.messageResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.errorResponse"}}
                }
            }
        },
        "/users/me": {
            "get": {
                "security": [{"CookieAuth": []}],
                "produces": ["application/json"],
                "tags": ["accounts"],
                "summary": "Current account",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.Account"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handler.errorResponse"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/handler.errorResponse"}}
                }
            }
        },
        "/promotors/me": {
            "get": {
                "security": [{"CookieAuth": []}],
                "produces": ["application/json"],
                "tags": ["accounts"],
                "summary": "Current account",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.Account"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handler.errorResponse"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/handler.errorResponse"}}
                }
            }
        },
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Liveness probe",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.messageResponse"}}
                }
            }
        },
        "/health/ready": {
            "get": {
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Readiness probe",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.readinessResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/handler.readinessResponse"}}
                }
            }
        }
    },
    "definitions": {
        "domain.Account": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "type": {"type": "string", "enum": ["user", "promotor"]},
                "username": {"type": "string"},
                "email": {"type": "string"},
                "isVerified": {"type": "boolean"},
                "refCode": {"type": "string"},
                "createdAt": {"type": "string"},
                "updatedAt": {"type": "string"}
            }
        },
        "handler.dependencyStatus": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "status": {"type": "string"},
                "error": {"type": "string"}
            }
        },
        "handler.errorResponse": {
            "type": "object",
            "properties": {"error": {"type": "string"}}
        },
        "handler.forgotPasswordRequest": {
            "type": "object",
            "required": ["data", "type"],
            "properties": {
                "type": {"type": "string", "enum": ["user", "promotor"]},
                "data": {"type": "string"}
            }
        },
        "handler.loginRequest": {
            "type": "object",
            "required": ["data", "password"],
            "properties": {
                "data": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "handler.loginResponse": {
            "type": "object",
            "properties": {
                "message": {"type": "string"},
                "account": {"$ref": "#/definitions/domain.Account"}
            }
        },
        "handler.messageResponse": {
            "type": "object",
            "properties": {"message": {"type": "string"}}
        },
        "handler.readinessResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string"},
                "dependencies": {"type": "array", "items": {"$ref": "#/definitions/handler.dependencyStatus"}}
            }
        },
        "handler.registerPromotorRequest": {
            "type": "object",
            "required": ["confirmPassword", "email", "name", "password"],
            "properties": {
                "name": {"type": "string"},
                "email": {"type": "string"},
                "password": {"type": "string"},
                "confirmPassword": {"type": "string"}
            }
        },
        "handler.registerUserRequest": {
            "type": "object",
            "required": ["confirmPassword", "email", "password", "username"],
            "properties": {
                "username": {"type": "string"},
                "email": {"type": "string"},
                "password": {"type": "string"},
                "confirmPassword": {"type": "string"}
            }
        },
        "handler.resetPasswordRequest": {
            "type": "object",
            "required": ["confirmPassword", "password"],
            "properties": {
                "password": {"type": "string"},
                "confirmPassword": {"type": "string"}
            }
        },
        "handler.sessionResponse": {
            "type": "object",
            "properties": {
                "type": {"type": "string"},
                "account": {"$ref": "#/definitions/domain.Account"}
            }
        }
    },
    "securityDefinitions": {
        "CookieAuth": {
            "type": "apiKey",
            "name": "token",
            "in": "cookie"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Ticketing Auth API",
	Description:      "Registration, login, verification and sessions for users and promotors.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
