package render

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrint(t *testing.T) {
	var buf bytes.Buffer

	Print(&buf, "Appointment Scheduling - WhatsApp Voice Message Status", "Voice message delivered to +15551234567")

	out := buf.String()
	assert.Contains(t, out, "Appointment Scheduling - WhatsApp Voice Message Status")
	assert.Contains(t, out, "Voice message delivered to +15551234567")
	assert.True(t, strings.HasPrefix(out, "+"), "table should be bordered")
}

func TestPrint_MultilineText(t *testing.T) {
	var buf bytes.Buffer

	Print(&buf, "Status", "line one\nline two\n")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	var body []string
	for _, l := range lines {
		if strings.Contains(l, "line ") {
			body = append(body, l)
		}
	}
	assert.Len(t, body, 2)
	assert.Less(t, strings.Index(buf.String(), "line one"), strings.Index(buf.String(), "line two"))
}

func TestPrint_EmptyText(t *testing.T) {
	var buf bytes.Buffer

	Print(&buf, "Status", "")

	assert.Contains(t, buf.String(), "Status")
}
