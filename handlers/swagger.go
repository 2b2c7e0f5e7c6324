package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterSwagger registers minimal Swagger/OpenAPI endpoints for the API.
// - GET /swagger/index.html  -> a small HTML page that loads the OpenAPI JSON
// - GET /swagger/doc.json    -> machine-readable OpenAPI JSON
func RegisterSwagger(rg *gin.Engine) {
	rg.GET("/swagger/index.html", func(c *gin.Context) {
		c.Header("Content-Type", "text/html; charset=utf-8")
		c.String(http.StatusOK, swaggerHTML)
	})

	rg.GET("/swagger/doc.json", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(swaggerJSON))
	})
}

const swaggerHTML = `<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>MH Construction API - Swagger</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@4/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@4/swagger-ui-bundle.js"></script>
    <script>
      window.ui = SwaggerUIBundle({
        url: '/swagger/doc.json',
        dom_id: '#swagger-ui',
      })
    </script>
  </body>
</html>`

// Minimal OpenAPI document for the public and admin endpoints.
const swaggerJSON = `{
  "openapi": "3.0.0",
  "info": { "title": "mhc-api", "version": "v1.0.0" },
  "components": {
    "securitySchemes": { "bearer": { "type": "http", "scheme": "bearer", "bearerFormat": "JWT" } }
  },
  "paths": {
    "/api/consultations": {
      "post": { "summary": "Submit a consultation request", "requestBody": { "content": { "application/json": { "schema": {"type":"object","required":["name","email","projectType"],"properties":{"name":{"type":"string"},"email":{"type":"string"},"phone":{"type":"string"},"projectType":{"type":"string"},"projectDescription":{"type":"string"},"location":{"type":"string"},"budget":{"type":"string"},"selectedDate":{"type":"string"},"selectedTime":{"type":"string"},"additionalNotes":{"type":"string"}}}}}}, "responses": { "200": { "description": "stored" }, "400": { "description": "validation error" }, "429": { "description": "rate limited" }, "500": { "description": "not stored" } } },
      "get": { "summary": "List consultations (admin)", "security": [{"bearer": []}], "parameters": [{"name":"limit","in":"query","schema":{"type":"integer","maximum":100}}], "responses": { "200": { "description": "newest first" }, "401": { "description": "unauthenticated" }, "403": { "description": "not an admin" } } }
    },
    "/api/consultations/{id}": {
      "patch": { "summary": "Update consultation status (admin)", "security": [{"bearer": []}], "responses": { "200": { "description": "updated" }, "404": { "description": "not found" } } },
      "delete": { "summary": "Delete consultation (admin)", "security": [{"bearer": []}], "responses": { "200": { "description": "deleted" }, "404": { "description": "not found" } } }
    },
    "/api/job-applications": {
      "post": { "summary": "Submit a job application", "requestBody": { "content": { "application/json": { "schema": {"type":"object","required":["firstName","lastName","email","position"],"properties":{"firstName":{"type":"string"},"lastName":{"type":"string"},"email":{"type":"string"},"phone":{"type":"string"},"position":{"type":"string"},"resumeUrl":{"type":"string"},"resumeFileName":{"type":"string"}}}}}}, "responses": { "200": { "description": "stored" }, "400": { "description": "validation error" } } },
      "get": { "summary": "List job applications (admin)", "security": [{"bearer": []}], "responses": { "200": { "description": "newest first" } } }
    },
    "/api/job-applications/{id}": {
      "patch": { "summary": "Update application status (admin)", "security": [{"bearer": []}], "responses": { "200": { "description": "updated" } } },
      "delete": { "summary": "Delete application (admin)", "security": [{"bearer": []}], "responses": { "200": { "description": "deleted" } } }
    },
    "/api/contact": {
      "post": { "summary": "Send a contact message", "responses": { "200": { "description": "stored" }, "400": { "description": "validation error" } } },
      "get": { "summary": "List contact messages (admin)", "security": [{"bearer": []}], "responses": { "200": { "description": "newest first" } } }
    },
    "/api/newsletter": {
      "post": { "summary": "Subscribe to the newsletter", "requestBody": { "content": { "application/json": { "schema": {"type":"object","required":["email"],"properties":{"email":{"type":"string"},"name":{"type":"string"}}}}}}, "responses": { "200": { "description": "subscribed" } } }
    },
    "/api/track-phone-call": {
      "post": { "summary": "Notify the office that a visitor tapped a phone number", "requestBody": { "content": { "application/json": { "schema": {"type":"object","required":["source","phoneNumber"],"properties":{"source":{"type":"string"},"phoneNumber":{"type":"string"},"timestamp":{"type":"string","format":"date-time"},"page":{"type":"string"},"referrer":{"type":"string"},"userAgent":{"type":"string"}}}}}}, "responses": { "200": { "description": "tracked, emailSent reports delivery" }, "400": { "description": "missing fields" } } }
    },
    "/api/notifications/subscribe": {
      "post": { "summary": "Register a browser push subscription", "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"subscription":{"type":"object","properties":{"endpoint":{"type":"string"},"keys":{"type":"object","properties":{"p256dh":{"type":"string"},"auth":{"type":"string"}}}}},"userAgent":{"type":"string"}}}}}}, "responses": { "200": { "description": "saved, returns id" }, "400": { "description": "invalid subscription" } } }
    },
    "/api/notifications/unsubscribe": {
      "post": { "summary": "Remove a browser push subscription", "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"subscription":{"type":"object","properties":{"endpoint":{"type":"string"}}}}}}}}, "responses": { "200": { "description": "removed flag returned" } } }
    },
    "/api/notifications/send": {
      "post": { "summary": "Push a notification to all or selected subscribers (admin)", "security": [{"bearer": []}], "requestBody": { "content": { "application/json": { "schema": {"type":"object","required":["title","body"],"properties":{"title":{"type":"string"},"body":{"type":"string"},"type":{"type":"string"},"targetAll":{"type":"boolean"},"targetIds":{"type":"array","items":{"type":"string"}}}}}}}, "responses": { "200": { "description": "delivery counts" }, "400": { "description": "title and body are required" } } },
      "get": { "summary": "Push a test notification to every subscriber (admin)", "security": [{"bearer": []}], "responses": { "200": { "description": "delivery counts" } } }
    },
    "/api/upload/resume": {
      "post": { "summary": "Upload a resume (PDF, DOC, DOCX; max 10MB)", "requestBody": { "content": { "multipart/form-data": { "schema": {"type":"object","properties":{"file":{"type":"string","format":"binary"},"email":{"type":"string"}}}}}}, "responses": { "200": { "description": "stored, returns key" }, "400": { "description": "bad file" } } },
      "get": { "summary": "Presigned resume URL (admin)", "security": [{"bearer": []}], "parameters": [{"name":"key","in":"query","required":true,"schema":{"type":"string"}}], "responses": { "200": { "description": "url valid for 15 minutes" }, "404": { "description": "not found" } } }
    },
    "/api/auth/login": {
      "post": { "summary": "Login with email and password", "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"email":{"type":"string"},"password":{"type":"string"}}}}}}, "responses": { "200": { "description": "tokens returned" }, "401": { "description": "invalid credentials" }, "429": { "description": "rate limited" } } }
    },
    "/api/auth/admin-login": {
      "post": { "summary": "Admin login (3 attempts per 5 minutes)", "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"email":{"type":"string"},"password":{"type":"string"}}}}}}, "responses": { "200": { "description": "tokens returned" }, "401": { "description": "invalid credentials" }, "429": { "description": "rate limited" } } }
    },
    "/api/auth/refresh": {
      "post": { "summary": "Refresh access token", "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"refreshToken":{"type":"string"}}}}}}, "responses": { "200": { "description": "new access token" }, "401": { "description": "invalid refresh" } } }
    },
    "/api/auth/me": {
      "get": { "summary": "Current identity", "security": [{"bearer": []}], "responses": { "200": { "description": "identity" }, "401": { "description": "unauthenticated" } } }
    },
    "/api/auth/logout": {
      "post": { "summary": "Revoke the caller's access token and optional refresh token (only when JWT_REVOCATION_ENABLED)", "security": [{"bearer": []}], "responses": { "200": { "description": "logged out" }, "401": { "description": "unauthenticated" } } }
    },
    "/health": { "get": { "summary": "Liveness check", "responses": { "200": { "description": "healthy" } } } },
    "/ready": { "get": { "summary": "Readiness check", "responses": { "200": { "description": "ready" }, "503": { "description": "not ready" } } } },
    "/metrics": { "get": { "summary": "Prometheus metrics", "responses": { "200": { "description": "text exposition" } } } }
  }
}`
