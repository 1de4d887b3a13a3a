// Package auth registers the OpenAPI document served at /swagger/.
package auth

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "license": {
            "name": "MIT",
            "url": "https://opensource.org/licenses/MIT"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/livez": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Health"],
                "summary": "Health Check Endpoint",
                "description": "Liveness probe returning basic service health, uptime, and version information",
                "responses": {
                    "200": {
                        "description": "status, uptime, version",
                        "schema": {"$ref": "#/definitions/authsdk.HealthResponse"}
                    }
                }
            }
        },
        "/readyz": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Health"],
                "summary": "Readiness Check Endpoint",
                "description": "Readiness probe returning service health and the status of critical dependencies",
                "responses": {
                    "200": {
                        "description": "status, uptime, version, checks",
                        "schema": {"$ref": "#/definitions/authsdk.HealthResponse"}
                    },
                    "503": {
                        "description": "service not ready",
                        "schema": {"$ref": "#/definitions/authsdk.HealthResponse"}
                    }
                }
            }
        },
        "/v1/auth/login": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Auth"],
                "summary": "Login",
                "description": "Verifies email and password and issues an access/refresh token pair. All authentication failures return the same 401.",
                "parameters": [
                    {
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/authsdk.LoginRequest"}
                    }
                ],
                "responses": {
                    "200": {
                        "description": "access_token, refresh_token, token_type, expires_at",
                        "schema": {"$ref": "#/definitions/authsdk.TokenResponse"}
                    },
                    "400": {"description": "error, error_description", "schema": {"$ref": "#/definitions/authsdk.ErrorResponse"}},
                    "401": {"description": "error, error_description", "schema": {"$ref": "#/definitions/authsdk.ErrorResponse"}},
                    "500": {"description": "error, error_description", "schema": {"$ref": "#/definitions/authsdk.ErrorResponse"}}
                }
            }
        },
        "/v1/auth/refresh": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Auth"],
                "summary": "Refresh",
                "description": "Rotates the presented refresh token and issues a new token pair. The old refresh token is revoked; replaying it returns 401.",
                "parameters": [
                    {
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/authsdk.RefreshRequest"}
                    }
                ],
                "responses": {
                    "200": {
                        "description": "access_token, refresh_token, token_type, expires_at",
                        "schema": {"$ref": "#/definitions/authsdk.TokenResponse"}
                    },
                    "400": {"description": "error, error_description", "schema": {"$ref": "#/definitions/authsdk.ErrorResponse"}},
                    "401": {"description": "error, error_description", "schema": {"$ref": "#/definitions/authsdk.ErrorResponse"}},
                    "500": {"description": "error, error_description", "schema": {"$ref": "#/definitions/authsdk.ErrorResponse"}}
                }
            }
        },
        "/v1/auth/logout": {
            "post": {
                "consumes": ["application/json"],
                "tags": ["Auth"],
                "summary": "Logout",
                "description": "Revokes the presented refresh token. Idempotent: unknown or already-revoked tokens still return 204.",
                "parameters": [
                    {
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/authsdk.LogoutRequest"}
                    }
                ],
                "responses": {
                    "204": {"description": "no content"},
                    "400": {"description": "error, error_description", "schema": {"$ref": "#/definitions/authsdk.ErrorResponse"}},
                    "500": {"description": "error, error_description", "schema": {"$ref": "#/definitions/authsdk.ErrorResponse"}}
                }
            }
        },
        "/v1/auth/password-reset": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["PasswordReset"],
                "summary": "Issue password reset token",
                "description": "Mints a single-use reset token for the given user and invalidates any prior outstanding one. Token delivery is out of band.",
                "parameters": [
                    {
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/authsdk.ResetIssueRequest"}
                    }
                ],
                "responses": {
                    "200": {
                        "description": "reset_token, expires_at",
                        "schema": {"$ref": "#/definitions/authsdk.ResetIssueResponse"}
                    },
                    "400": {"description": "error, error_description", "schema": {"$ref": "#/definitions/authsdk.ErrorResponse"}},
                    "401": {"description": "error, error_description", "schema": {"$ref": "#/definitions/authsdk.ErrorResponse"}},
                    "403": {"description": "error, error_description", "schema": {"$ref": "#/definitions/authsdk.ErrorResponse"}},
                    "404": {"description": "error, error_description", "schema": {"$ref": "#/definitions/authsdk.ErrorResponse"}},
                    "500": {"description": "error, error_description", "schema": {"$ref": "#/definitions/authsdk.ErrorResponse"}}
                }
            }
        },
        "/v1/auth/password-reset/validate": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["PasswordReset"],
                "summary": "Validate password reset token",
                "description": "Reports whether a reset token is currently usable without consuming it. Expired tokens are removed on sight.",
                "parameters": [
                    {
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/authsdk.ResetValidateRequest"}
                    }
                ],
                "responses": {
                    "200": {
                        "description": "valid, user_id",
                        "schema": {"$ref": "#/definitions/authsdk.ResetValidateResponse"}
                    },
                    "400": {"description": "error, error_description", "schema": {"$ref": "#/definitions/authsdk.ErrorResponse"}},
                    "500": {"description": "error, error_description", "schema": {"$ref": "#/definitions/authsdk.ErrorResponse"}}
                }
            }
        },
        "/v1/auth/password-reset/complete": {
            "post": {
                "consumes": ["application/json"],
                "tags": ["PasswordReset"],
                "summary": "Complete password reset",
                "description": "Consumes the reset token, sets the new password, and revokes the user's active refresh tokens. The token is single-use.",
                "parameters": [
                    {
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/authsdk.ResetCompleteRequest"}
                    }
                ],
                "responses": {
                    "204": {"description": "no content"},
                    "400": {"description": "error, error_description", "schema": {"$ref": "#/definitions/authsdk.ErrorResponse"}},
                    "401": {"description": "error, error_description", "schema": {"$ref": "#/definitions/authsdk.ErrorResponse"}},
                    "500": {"description": "error, error_description", "schema": {"$ref": "#/definitions/authsdk.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "authsdk.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string"},
                "error_description": {"type": "string"}
            }
        },
        "authsdk.HealthChecks": {
            "type": "object",
            "properties": {
                "database": {"type": "string"}
            }
        },
        "authsdk.HealthResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string"},
                "uptime": {"type": "string"},
                "version": {"type": "string"},
                "checks": {"$ref": "#/definitions/authsdk.HealthChecks"}
            }
        },
        "authsdk.LoginRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "authsdk.RefreshRequest": {
            "type": "object",
            "properties": {
                "refresh_token": {"type": "string"}
            }
        },
        "authsdk.LogoutRequest": {
            "type": "object",
            "properties": {
                "refresh_token": {"type": "string"}
            }
        },
        "authsdk.TokenResponse": {
            "type": "object",
            "properties": {
                "access_token": {"type": "string"},
                "refresh_token": {"type": "string"},
                "token_type": {"type": "string"},
                "expires_at": {"type": "string"}
            }
        },
        "authsdk.ResetIssueRequest": {
            "type": "object",
            "properties": {
                "user_id": {"type": "string"}
            }
        },
        "authsdk.ResetIssueResponse": {
            "type": "object",
            "properties": {
                "reset_token": {"type": "string"},
                "expires_at": {"type": "string"}
            }
        },
        "authsdk.ResetValidateRequest": {
            "type": "object",
            "properties": {
                "token": {"type": "string"}
            }
        },
        "authsdk.ResetValidateResponse": {
            "type": "object",
            "properties": {
                "valid": {"type": "boolean"},
                "user_id": {"type": "string"}
            }
        },
        "authsdk.ResetCompleteRequest": {
            "type": "object",
            "properties": {
                "token": {"type": "string"},
                "new_password": {"type": "string"},
                "confirm_password": {"type": "string"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header",
            "description": "JWT access token. Format: \"Bearer {token}\"."
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "0.1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{"http", "https"},
	Title:            "Evalua Authentication Service API",
	Description:      "Credential and token lifecycle for the evalua platform: login, refresh token rotation, logout, and password reset.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
