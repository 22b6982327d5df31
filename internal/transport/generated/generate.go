// Package generated holds the HTTP glue generated from api/openapi.yaml.
package generated

//go:generate go run github.com/oapi-codegen/oapi-codegen/v2/cmd/oapi-codegen --config=config.yaml ../../../api/openapi.yaml
