package permissions

import "errors"

// ConfigurationError marks programmer errors (an operation verb outside the
// vocabulary, a malformed grant condition). Denials are plain false results,
// never errors; collaborator failures propagate verbatim.
type ConfigurationError struct {
	msg string
}

func (e *ConfigurationError) Error() string { return e.msg }

func newConfiguration(msg string) error { return &ConfigurationError{msg: msg} }

func IsConfiguration(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}
