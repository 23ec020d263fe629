package main

import _ "embed"

// openapiYAML is served at /api/openapi.yaml and rendered by /swagger.
//
//go:embed openapi.yaml
var openapiYAML []byte
