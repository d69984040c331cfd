// Package docs registers the OpenAPI description of the Bar Tab API with swag.
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
        "/customers": {
            "get": {
                "produces": ["application/json"],
                "tags": ["customers"],
                "summary": "List customers with their balances",
                "parameters": [
                    {"type": "string", "description": "Case-insensitive name filter", "name": "q", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.customerList"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/services.ErrorResponse"}}
                }
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["customers"],
                "summary": "Open a tab for a new customer",
                "parameters": [
                    {"description": "Customer", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.customerRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/models.Statement"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/services.ErrorResponse"}}
                }
            },
            "delete": {
                "tags": ["customers"],
                "summary": "Remove every customer",
                "responses": {
                    "204": {"description": "No Content"},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/services.ErrorResponse"}}
                }
            }
        },
        "/customers/{customerId}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["customers"],
                "summary": "Get a customer statement",
                "parameters": [
                    {"type": "string", "description": "Customer ID", "name": "customerId", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Statement"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/services.ErrorResponse"}}
                }
            },
            "put": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["customers"],
                "summary": "Rename a customer",
                "parameters": [
                    {"type": "string", "description": "Customer ID", "name": "customerId", "in": "path", "required": true},
                    {"description": "Customer", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.customerRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Statement"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/services.ErrorResponse"}}
                }
            },
            "delete": {
                "tags": ["customers"],
                "summary": "Delete a customer",
                "parameters": [
                    {"type": "string", "description": "Customer ID", "name": "customerId", "in": "path", "required": true}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/customers/{customerId}/charges": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["ledger"],
                "summary": "Queue a pending charge",
                "parameters": [
                    {"type": "string", "description": "Customer ID", "name": "customerId", "in": "path", "required": true},
                    {"description": "Charge", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.chargeRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Statement"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/services.ErrorResponse"}}
                }
            }
        },
        "/customers/{customerId}/charges/quick": {
            "post": {
                "produces": ["application/json"],
                "tags": ["ledger"],
                "summary": "Queue one unit of the house item",
                "parameters": [
                    {"type": "string", "description": "Customer ID", "name": "customerId", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Statement"}}
                }
            }
        },
        "/customers/{customerId}/payments": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["ledger"],
                "summary": "Record a payment",
                "parameters": [
                    {"type": "string", "description": "Customer ID", "name": "customerId", "in": "path", "required": true},
                    {"description": "Payment", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.paymentRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Statement"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/services.ErrorResponse"}}
                }
            }
        },
        "/customers/{customerId}/pending/confirm": {
            "post": {
                "produces": ["application/json"],
                "tags": ["ledger"],
                "summary": "Confirm every pending charge",
                "parameters": [
                    {"type": "string", "description": "Customer ID", "name": "customerId", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Statement"}}
                }
            }
        },
        "/customers/{customerId}/pending/{index}": {
            "delete": {
                "produces": ["application/json"],
                "tags": ["ledger"],
                "summary": "Cancel one pending charge",
                "parameters": [
                    {"type": "string", "description": "Customer ID", "name": "customerId", "in": "path", "required": true},
                    {"type": "integer", "description": "Pending index", "name": "index", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Statement"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/services.ErrorResponse"}}
                }
            }
        },
        "/customers/{customerId}/pending/{index}/confirm": {
            "post": {
                "produces": ["application/json"],
                "tags": ["ledger"],
                "summary": "Confirm one pending charge",
                "parameters": [
                    {"type": "string", "description": "Customer ID", "name": "customerId", "in": "path", "required": true},
                    {"type": "integer", "description": "Pending index", "name": "index", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Statement"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/services.ErrorResponse"}}
                }
            }
        },
        "/customers/{customerId}/reset": {
            "post": {
                "produces": ["application/json"],
                "tags": ["ledger"],
                "summary": "Clear a customer's history",
                "parameters": [
                    {"type": "string", "description": "Customer ID", "name": "customerId", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Statement"}}
                }
            }
        }
    },
    "definitions": {
        "handlers.chargeRequest": {
            "type": "object",
            "required": ["unitPrice"],
            "properties": {
                "title": {"type": "string"},
                "unitPrice": {"type": "number"},
                "quantity": {"type": "integer"}
            }
        },
        "handlers.customerList": {
            "type": "object",
            "properties": {
                "customers": {"type": "array", "items": {"$ref": "#/definitions/models.Statement"}}
            }
        },
        "handlers.customerRequest": {
            "type": "object",
            "required": ["name"],
            "properties": {
                "name": {"type": "string"}
            }
        },
        "handlers.paymentRequest": {
            "type": "object",
            "required": ["amount"],
            "properties": {
                "amount": {"type": "number"}
            }
        },
        "models.CustomerRecord": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"},
                "purchases": {"type": "array", "items": {"$ref": "#/definitions/models.LineItem"}},
                "payments": {"type": "array", "items": {"$ref": "#/definitions/models.PaymentItem"}},
                "pending": {"type": "array", "items": {"$ref": "#/definitions/models.LineItem"}},
                "version": {"type": "integer"},
                "createdAt": {"type": "string"},
                "updatedAt": {"type": "string"}
            }
        },
        "models.LineItem": {
            "type": "object",
            "properties": {
                "title": {"type": "string"},
                "unitPrice": {"type": "string"},
                "quantity": {"type": "integer"},
                "timestamp": {"type": "string"},
                "recordedBy": {"type": "string"}
            }
        },
        "models.PaymentItem": {
            "type": "object",
            "properties": {
                "amount": {"type": "string"},
                "timestamp": {"type": "string"},
                "recordedBy": {"type": "string"}
            }
        },
        "models.Statement": {
            "type": "object",
            "properties": {
                "customer": {"$ref": "#/definitions/models.CustomerRecord"},
                "totalPurchases": {"type": "string"},
                "totalPayments": {"type": "string"},
                "pendingTotal": {"type": "string"},
                "balance": {"type": "string"}
            }
        },
        "services.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string"},
                "details": {"type": "object", "additionalProperties": {"type": "string"}}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/api/v1",
	Schemes:          []string{"http", "https"},
	Title:            "Bar Tab API",
	Description:      "Customer tabs for a bar: pending charges, confirmed purchases, payments and balances.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
