package vaultapi

import (
	"encoding/json"
	"fmt"
	"strings"

	jmespath "github.com/jmespath/go-jmespath"
	"github.com/xeipuuv/gojsonschema"
)

// Response shapes consumed by the client. Only the fields that are read are
// constrained; anything else the server sends is ignored.
const (
	loginSchemaJSON = `{
  "type": "object",
  "anyOf": [
    {"required": ["tokenId"], "properties": {"tokenId": {"type": "string", "minLength": 1}}},
    {"required": ["data"], "properties": {"data": {
      "type": "object",
      "required": ["tokenId"],
      "properties": {"tokenId": {"type": "string", "minLength": 1}}
    }}}
  ]
}`

	collectionSchemaJSON = `{
  "type": "object",
  "required": ["data"],
  "properties": {"data": {
    "type": "array",
    "items": {"type": "object", "properties": {
      "id": {"type": ["string", "null"]},
      "name": {"type": ["string", "null"]}
    }}
  }}
}`

	entrySchemaJSON = `{
  "type": "object",
  "required": ["data"],
  "properties": {"data": {
    "type": "object",
    "required": ["password"],
    "properties": {"password": {"type": "string"}}
  }}
}`
)

var (
	loginSchema     = mustSchema(loginSchemaJSON)
	vaultListSchema = mustSchema(collectionSchemaJSON)
	entryListSchema = mustSchema(collectionSchemaJSON)
	entrySchema     = mustSchema(entrySchemaJSON)

	// The login token has been seen both at the top level and under data.
	tokenQuery   = jmespath.MustCompile("tokenId || data.tokenId")
	messageQuery = jmespath.MustCompile("message")
)

func mustSchema(src string) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(src))
	if err != nil {
		panic(fmt.Sprintf("vaultapi: invalid response schema: %v", err))
	}
	return schema
}

// validateBody checks body against schema and returns a readable error
// listing every violation.
func validateBody(schema *gojsonschema.Schema, body []byte) error {
	if len(body) == 0 {
		return fmt.Errorf("malformed response body: empty")
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return fmt.Errorf("malformed response body: %w", err)
	}

	if !result.Valid() {
		var problems []string
		for _, re := range result.Errors() {
			problems = append(problems, re.String())
		}
		return fmt.Errorf("unexpected response shape: %s", strings.Join(problems, "; "))
	}

	return nil
}

// searchString evaluates query against a JSON document and returns the
// result when it is a string.
func searchString(query *jmespath.JMESPath, body []byte) (string, bool) {
	if len(body) == 0 {
		return "", false
	}

	var doc interface{}
	if err := json.Unmarshal(body, &doc); err != nil {
		return "", false
	}

	result, err := query.Search(doc)
	if err != nil {
		return "", false
	}

	s, ok := result.(string)
	return s, ok
}
