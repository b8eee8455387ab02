// Package docs registra la especificación OpenAPI servida en /swagger.
// Se regenera con `swag init -g cmd/api/main.go`.
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
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    },
    "paths": {
        "/medicines": {
            "get": {"tags": ["medicines"], "summary": "List active medicines", "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["medicines"], "summary": "Create medicine", "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request"}}}
        },
        "/medicines/low-stock": {
            "get": {"tags": ["medicines"], "summary": "Medicines at or below min stock", "responses": {"200": {"description": "OK"}}}
        },
        "/schedules": {
            "get": {"tags": ["schedules"], "summary": "List schedules", "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["schedules"], "summary": "Create schedule", "responses": {"201": {"description": "Created"}}}
        },
        "/schedules/by-date": {
            "get": {"tags": ["schedules"], "summary": "Details due on a date", "responses": {"200": {"description": "OK"}}}
        },
        "/schedules/details/{detailID}/take": {
            "post": {"tags": ["history"], "summary": "Mark occurrence as taken", "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}, "404": {"description": "Not Found"}}}
        },
        "/schedules/details/{detailID}/skip": {
            "post": {"tags": ["history"], "summary": "Skip occurrence and mute alarm", "responses": {"200": {"description": "OK"}, "409": {"description": "Conflict"}}}
        },
        "/schedules/details/{detailID}/undo": {
            "post": {"tags": ["history"], "summary": "Undo today's occurrence", "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}}
        },
        "/schedules/details/{detailID}/muted": {
            "get": {"tags": ["history"], "summary": "Alarm mute state", "responses": {"200": {"description": "OK"}}}
        },
        "/history": {
            "get": {"tags": ["history"], "summary": "Full history", "responses": {"200": {"description": "OK"}}}
        },
        "/history/weekly": {
            "get": {"tags": ["history"], "summary": "Weekly list and snapshot", "responses": {"200": {"description": "OK"}}}
        },
        "/history/weekly/compliance": {
            "get": {"tags": ["history"], "summary": "Weekly compliance rate", "responses": {"200": {"description": "OK"}}}
        },
        "/history/weekly/missed-count": {
            "get": {"tags": ["history"], "summary": "Weekly missed count", "responses": {"200": {"description": "OK"}}}
        },
        "/history/recent": {
            "get": {"tags": ["history"], "summary": "Recent activity", "responses": {"200": {"description": "OK"}}}
        },
        "/settings": {
            "get": {"tags": ["settings"], "summary": "Get settings", "responses": {"200": {"description": "OK"}}},
            "patch": {"tags": ["settings"], "summary": "Update settings", "responses": {"200": {"description": "OK"}}}
        },
        "/reminders": {
            "get": {"tags": ["reminders"], "summary": "List reminders", "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["reminders"], "summary": "Create reminder", "responses": {"201": {"description": "Created"}}}
        },
        "/reminders/upcoming": {
            "get": {"tags": ["reminders"], "summary": "Upcoming reminders", "responses": {"200": {"description": "OK"}}}
        }
    }
}`

var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "medcare API",
	Description:      "Medication adherence backend: medicines, schedules, intake history and compliance.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
