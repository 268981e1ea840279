package main

//go:generate swag init -g cmd/console/main.go -o docs

// @title           Financial Console API
// @version         0.1.0
// @description     Cached page reads, typeahead suggestions, layout editing, and exports for the admin console.
// @host            localhost:8080
// @BasePath        /
// @schemes         http
