// Package docs PressGrid API documentation
package docs

// Swagger documentation info
// @title PressGrid API
// @version 1.0
// @description Central API documentation for the PressGrid content platform

// @host localhost:8001
// @BasePath /api
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the JWT token.

// @securityDefinitions.apikey APIKeyAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the organization API key.

// Content Service Endpoints
// @tag.name auth
// @tag.description Authentication and session management
// @tag.name posts
// @tag.description Post management
// @tag.name categories
// @tag.description Category management
// @tag.name comments
// @tag.description Comment moderation
// @tag.name members
// @tag.description Organization member management
// @tag.name organization
// @tag.description Organization settings, API keys and usage

// Public API Endpoints
// @tag.name public
// @tag.description Metered public read API
