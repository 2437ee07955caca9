package util

import (
	"github.com/cockroachdb/errors"
	"github.com/shopmonkeyus/go-common/logger"
)

// RecoverPanic recovers and logs a panic with a stack trace.
func RecoverPanic(log logger.Logger) {
	if r := recover(); r != nil {
		err := errors.Newf("panic: %v", r)
		err = errors.WithStack(err)
		log.Error("%+v", err)
	}
}
