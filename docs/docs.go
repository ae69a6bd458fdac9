// Package docs registers the OpenAPI description served by gin-swagger.
// Regenerate with `swag init -g cmd/server/main.go` after changing handler
// annotations.
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
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Health"],
                "summary": "Liveness probe",
                "operationId": "health",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.HealthResponse"}}
                }
            }
        },
        "/api/create-egg": {
            "post": {
                "description": "Generates an egg illustration from a description and descriptors and stores the egg.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Eggs"],
                "summary": "Create an egg",
                "operationId": "createEgg",
                "parameters": [
                    {"description": "Egg metadata", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.CreateEggRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.EggResponse"}},
                    "400": {"description": "Bad request", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "500": {"description": "Internal error", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "502": {"description": "Provider failure", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/api/analyze-image": {
            "post": {
                "description": "Accepts a multipart \"image\" upload (png, jpg, jpeg, gif, webp) or a JSON body with base64 \"image_data\", and returns a description plus descriptors.",
                "consumes": ["multipart/form-data", "application/json"],
                "produces": ["application/json"],
                "tags": ["Eggs"],
                "summary": "Analyze an image",
                "operationId": "analyzeImage",
                "parameters": [
                    {"type": "file", "description": "Image upload", "name": "image", "in": "formData"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.AnalysisResponse"}},
                    "400": {"description": "Bad request", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "413": {"description": "Payload too large", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "502": {"description": "Provider failure", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/api/eggs": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Eggs"],
                "summary": "List eggs",
                "operationId": "listEggs",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.EggListResponse"}},
                    "500": {"description": "Internal error", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/api/creatures": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Creatures"],
                "summary": "List creatures",
                "operationId": "listCreatures",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.CreatureListResponse"}},
                    "500": {"description": "Internal error", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/api/care-questions": {
            "get": {
                "description": "Returns one incubation question chosen at random.",
                "produces": ["application/json"],
                "tags": ["Creatures"],
                "summary": "Get a care question",
                "operationId": "careQuestions",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.CareQuestionsResponse"}}
                }
            }
        },
        "/api/hatch-creature": {
            "post": {
                "description": "Generates a named creature with an image and sound from an egg and the first care response.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Creatures"],
                "summary": "Hatch a creature",
                "operationId": "hatchCreature",
                "parameters": [
                    {"description": "Egg id and care responses", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.HatchCreatureRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.CreatureResponse"}},
                    "400": {"description": "Bad request", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "404": {"description": "Egg not found", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "500": {"description": "Internal error", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "502": {"description": "Provider failure", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/static/{filepath}": {
            "get": {
                "description": "images/{file} and audio/{file} resolve generated assets (audio is sent as audio/mpeg); other paths are served from the static root.",
                "produces": ["image/png", "audio/mpeg"],
                "tags": ["Assets"],
                "summary": "Serve a generated asset or frontend file",
                "operationId": "serveStatic",
                "parameters": [
                    {"type": "string", "description": "Path below /static", "name": "filepath", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "File not found", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "domain.Egg": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "description": {"type": "string"},
                "descriptors": {"type": "array", "items": {"type": "string"}},
                "image_url": {"type": "string"},
                "created_at": {"type": "string"},
                "status": {"type": "string", "enum": ["created", "hatched"]},
                "incubation_stage": {"type": "integer"}
            }
        },
        "domain.Creature": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"},
                "egg_id": {"type": "string"},
                "image_url": {"type": "string"},
                "sound_text": {"type": "string"},
                "sound_name": {"type": "string"},
                "voice_description": {"type": "string"},
                "audio_url": {"type": "string", "x-nullable": true},
                "care_responses": {"type": "object", "additionalProperties": {"type": "string"}},
                "hatched_at": {"type": "string"},
                "egg_traits": {"type": "array", "items": {"type": "string"}},
                "egg_description": {"type": "string"}
            }
        },
        "prompts.CareQuestion": {
            "type": "object",
            "properties": {
                "id": {"type": "string", "example": "feelings"},
                "question": {"type": "string", "example": "How does the egg make you feel?"},
                "placeholder": {"type": "string"}
            }
        },
        "services.Analysis": {
            "type": "object",
            "properties": {
                "description": {"type": "string"},
                "descriptors": {"type": "array", "items": {"type": "string"}}
            }
        },
        "handlers.ErrorResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean", "example": false},
                "request_id": {"type": "string"},
                "code": {"type": "string", "example": "not_found"},
                "error": {"type": "string", "example": "egg not found"},
                "message": {"type": "string", "example": "Egg not found"}
            }
        },
        "handlers.HealthResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string", "example": "healthy"},
                "message": {"type": "string"},
                "timestamp": {"type": "string"}
            }
        },
        "handlers.CreateEggRequest": {
            "type": "object",
            "properties": {
                "description": {"type": "string"},
                "descriptors": {"type": "array", "items": {"type": "string"}}
            }
        },
        "handlers.HatchCreatureRequest": {
            "type": "object",
            "properties": {
                "egg_id": {"type": "string"},
                "care_responses": {"type": "object", "additionalProperties": {"type": "string"}}
            }
        },
        "handlers.EggResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "egg": {"$ref": "#/definitions/domain.Egg"},
                "message": {"type": "string"}
            }
        },
        "handlers.AnalysisResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "analysis": {"$ref": "#/definitions/services.Analysis"},
                "message": {"type": "string"}
            }
        },
        "handlers.EggListResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "eggs": {"type": "array", "items": {"$ref": "#/definitions/domain.Egg"}}
            }
        },
        "handlers.CreatureListResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "creatures": {"type": "array", "items": {"$ref": "#/definitions/domain.Creature"}}
            }
        },
        "handlers.CareQuestionsResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "questions": {
                    "type": "object",
                    "properties": {
                        "questions": {"type": "array", "items": {"$ref": "#/definitions/prompts.CareQuestion"}}
                    }
                }
            }
        },
        "handlers.CreatureResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "creature": {"$ref": "#/definitions/domain.Creature"},
                "message": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Hatch API",
	Description:      "Create eggs from descriptions or photos, incubate them, and hatch AI-generated creatures.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
