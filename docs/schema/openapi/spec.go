// Package openapi embeds the exhibit register HTTP API description for
// runtime distribution.
package openapi

import _ "embed"

// ContentType is the media type of the embedded document.
const ContentType = "application/yaml"

// ExhibitAPISpec contains the OpenAPI document for the exhibit API.
//
//go:embed exhibitcore.yaml
var ExhibitAPISpec []byte

// Spec returns a copy of the embedded OpenAPI YAML.
func Spec() []byte {
	return append([]byte(nil), ExhibitAPISpec...)
}
