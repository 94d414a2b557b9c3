package errext

import (
	"errors"
)

// Format formats the given error as a message (string) and a map of fields.
// In case of [*Error], the kind is added as the "category" field, along with
// the locator and HTTP status when they are known.
// In case of [HasHint], it also adds the hint as a field.
func Format(err error) (string, map[string]interface{}) {
	if err == nil {
		return "", nil
	}

	fields := make(map[string]interface{})
	var kerr *Error
	if errors.As(err, &kerr) {
		fields["category"] = kerr.Kind.String()
		if kerr.Locator != "" {
			fields["locator"] = kerr.Locator
		}
		if kerr.Status != 0 {
			fields["status"] = kerr.Status
		}
	}

	var herr HasHint
	if errors.As(err, &herr) && herr.Hint() != "" {
		fields["hint"] = herr.Hint()
	}

	return err.Error(), fields
}
