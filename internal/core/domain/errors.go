package domain

import (
	"errors"
	"fmt"
)

var (
	ErrFileNotFound         = errors.New("file not found")
	ErrConversationNotFound = errors.New("conversation not found")
	ErrInvalidInput         = errors.New("invalid input")
	ErrStorage              = errors.New("object storage failure")
	ErrMetadataWrite        = errors.New("metadata write failure")
	ErrTriggerFailed        = errors.New("extraction trigger failed")
	ErrOutOfOrderCallback   = errors.New("out-of-order extraction callback")
	ErrTemporary            = errors.New("temporary failure")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
