package swagger

import _ "embed"

// OpenAPI contains the embedded OpenAPI YAML description of the ranking API.
//
//go:embed openapi.yaml
var OpenAPI []byte
