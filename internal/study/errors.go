package study

import "errors"

// ErrEmptyInput is returned when there is nothing to study.
var ErrEmptyInput = errors.New("no content provided")
