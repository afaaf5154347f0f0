// internal/pipeline/inputs.go
package pipeline

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"unicode/utf8"

	"appointment-scheduler/internal/common/errors"
	"appointment-scheduler/internal/common/metrics"
	"appointment-scheduler/internal/common/validation"
)

// LoadInputs reads and decodes the JSON object at path. Numbers stay
// json.Number. Content that is not valid UTF-8 is rejected rather than
// repaired.
func LoadInputs(path string) (Inputs, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return nil, errors.NewInputsFileNotFoundError(path, err)
		}
		return nil, err
	}

	if !utf8.Valid(data) {
		return nil, errors.NewMalformedInputError(path, fmt.Errorf("file is not valid UTF-8"))
	}

	inputs, err := decodeInputs(data)
	if err != nil {
		return nil, errors.NewMalformedInputError(path, err)
	}
	return inputs, nil
}

func decodeInputs(data []byte) (Inputs, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw interface{}
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("unexpected data after top-level value")
	}

	obj, ok := raw.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("top-level value is %s, want object", jsonKind(raw))
	}
	return Inputs(obj), nil
}

func jsonKind(v interface{}) string {
	switch v.(type) {
	case nil:
		return "null"
	case []interface{}:
		return "array"
	case string:
		return "string"
	case bool:
		return "boolean"
	case json.Number:
		return "number"
	default:
		return fmt.Sprintf("%T", v)
	}
}

// CheckRequired fails with every absent required key, in RequiredKeys order.
func CheckRequired(inputs Inputs) error {
	result := validation.ValidateInput(inputs, inputSchema)
	if result.Valid {
		return nil
	}

	missing := result.MissingFields()
	for _, field := range missing {
		metrics.MissingInputFields.WithLabelValues(field).Inc()
	}
	return errors.NewMissingRequiredFieldError(missing)
}
