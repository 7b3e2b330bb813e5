package hostapi

import "errors"

func asStatusError(err error, target **StatusError) bool {
	return errors.As(err, target)
}

// HTTPStatus returns the host status code carried by err, or 0.
func HTTPStatus(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode
	}
	return 0
}
