// internal/pipeline/models.go
package pipeline

import "appointment-scheduler/internal/common/validation"

// Inputs is the decoded input document. Values are forwarded to the engine
// untouched.
type Inputs map[string]interface{}

// RequiredKeys must all be present in an input document before dispatch.
var RequiredKeys = []string{
	"person_email",
	"person_phone",
	"google_calendar_credentials",
	"whatsapp_credentials",
}

var inputSchema = validation.JSONSchema{
	Type:     "object",
	Required: RequiredKeys,
}
