package utils

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// ErrorHandler logs err under message and hands back a wrapped error for the
// caller to propagate. A nil err passes through untouched so call sites can
// chain it unconditionally.
func ErrorHandler(err error, message string) error {
	if err == nil {
		return nil
	}

	Logger.WithFields(logrus.Fields{
		"error": err.Error(),
	}).Error(message)

	return fmt.Errorf("%s: %w", message, err)
}
