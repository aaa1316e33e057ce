package vaultapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/systmms/vaultfetch/internal/logging"
)

// Exchange records one request and, when one arrived, its response.
type Exchange struct {
	Method     string
	URL        string
	Query      url.Values
	Payload    []byte
	StatusCode int
	StatusText string
	Header     http.Header
	Body       []byte
}

func (e *Exchange) ok() bool {
	return e.StatusCode >= 200 && e.StatusCode < 300
}

// ServerMessage returns the "message" field of a JSON response body, if any.
func (e *Exchange) ServerMessage() string {
	if e == nil {
		return ""
	}
	msg, _ := searchString(messageQuery, e.Body)
	return msg
}

// report builds the diagnostic record written at debug level when a step fails.
// Credentials in the request payload are masked.
func (e *Exchange) report(message string) map[string]interface{} {
	r := map[string]interface{}{
		"message": message,
	}
	if e == nil {
		return r
	}

	r["url"] = e.URL
	r["method"] = e.Method
	if len(e.Query) > 0 {
		r["queryParams"] = e.Query
	}
	if len(e.Payload) > 0 {
		r["requestData"] = maskedPayload(e.Payload)
	}
	if e.StatusCode > 0 {
		r["status"] = e.StatusCode
		r["statusText"] = e.StatusText
		r["headers"] = e.Header
		r["data"] = decodedBody(e.Body)
	}

	return r
}

func maskedPayload(payload []byte) interface{} {
	var fields map[string]interface{}
	if err := json.Unmarshal(payload, &fields); err != nil {
		return logging.Mask(string(payload))
	}
	return logging.MaskFields(fields)
}

func decodedBody(body []byte) interface{} {
	if len(body) == 0 {
		return nil
	}
	var v interface{}
	if err := json.Unmarshal(body, &v); err != nil {
		return string(body)
	}
	return v
}

func indentJSON(body []byte) string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, body, "", "  "); err != nil {
		return string(body)
	}
	return buf.String()
}
