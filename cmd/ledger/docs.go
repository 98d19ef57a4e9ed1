package main

// @title Stock Ledger Service API
// @version 1.0
// @description This is the Stock Ledger Service API: tracked stock balances with an append-only movement audit trail
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.url http://github.com/andrewkhoh/farmstand-inventory
// @contact.email support@example.com

// @license.name MIT
// @license.url https://github.com/andrewkhoh/farmstand-inventory/blob/main/LICENSE

// @host localhost:8084
// @BasePath /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// @tag.name Items
// @tag.description Inventory item balance endpoints

// @tag.name Movements
// @tag.description Stock movement recording and query endpoints

// @tag.name Analytics
// @tag.description Movement aggregation endpoints

// @tag.name Admin
// @tag.description Administrative endpoints

// @tag.name Health
// @tag.description Health check endpoints

// @tag.name Swagger
// @tag.description Swagger documentation endpoints
