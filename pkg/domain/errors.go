package domain

import (
	"errors"
	"fmt"
)

// ErrorKind は1回の送信で起こりうる失敗の分類です。
type ErrorKind string

const (
	KindValidation         ErrorKind = "ValidationError"
	KindMissingCredentials ErrorKind = "MissingCredentials"
	KindTransport          ErrorKind = "TransportFailure"
	KindSessionExpired     ErrorKind = "SessionExpired"
	KindNoImage            ErrorKind = "NoImageReturned"
	KindDecode             ErrorKind = "DecodeFailure"
)

// 分類ごとの番兵です。errors.Is は Kind だけを比較します。
var (
	ErrValidation         = &GenerationError{Kind: KindValidation}
	ErrMissingCredentials = &GenerationError{Kind: KindMissingCredentials}
	ErrTransport          = &GenerationError{Kind: KindTransport}
	ErrSessionExpired     = &GenerationError{Kind: KindSessionExpired}
	ErrNoImage            = &GenerationError{Kind: KindNoImage}
	ErrDecode             = &GenerationError{Kind: KindDecode}
)

// GenerationError は分類付きのエラーです。Message はそのまま利用者に表示できる文言です。
type GenerationError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *GenerationError) Error() string {
	switch {
	case e.Message == "" && e.Err == nil:
		return string(e.Kind)
	case e.Message == "":
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	case e.Err == nil:
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// Is は同じ Kind の GenerationError と一致します。
func (e *GenerationError) Is(target error) bool {
	t, ok := target.(*GenerationError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// NewError は分類付きのエラーを生成します。
func NewError(kind ErrorKind, message string, err error) *GenerationError {
	return &GenerationError{Kind: kind, Message: message, Err: err}
}

// NewValidationError は入力不備のエラーを生成します。
func NewValidationError(message string) *GenerationError {
	return &GenerationError{Kind: KindValidation, Message: message}
}

// KindOf は err の分類を返します。分類されていないエラーは TransportFailure とみなします。
func KindOf(err error) ErrorKind {
	var ge *GenerationError
	if errors.As(err, &ge) {
		return ge.Kind
	}
	return KindTransport
}

// Classify は err を GenerationError に揃えます。nil はそのまま nil を返します。
func Classify(err error) *GenerationError {
	if err == nil {
		return nil
	}
	var ge *GenerationError
	if errors.As(err, &ge) {
		return ge
	}
	return &GenerationError{Kind: KindTransport, Message: err.Error(), Err: err}
}
