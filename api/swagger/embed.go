// Package swagger embeds the OpenAPI document of the HTTP API.
package swagger

import _ "embed"

// FileName is the name the document is served under
const FileName = "bookreview.swagger.json"

// Spec is the OpenAPI 2.0 document
//
//go:embed bookreview.swagger.json
var Spec []byte
