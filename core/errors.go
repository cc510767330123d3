package core

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

// ErrorKind is the dispatch key callers branch on. Messages are descriptive only.
type ErrorKind string

const (
	KindMail           ErrorKind = "MailError"
	KindFetchUsers     ErrorKind = "FetchUsersError"
	KindDuplicatedUser ErrorKind = "DuplicatedUserError"
	KindDeletingUser   ErrorKind = "DeletingUserError"
	KindCreatingUser   ErrorKind = "CreatingUserError"
	KindTokenExpired   ErrorKind = "TokenExpiredError"
	KindGeneric        ErrorKind = "Error"
)

var (
	ErrInvalidMail          = errors.New("core: invalid mail")
	ErrMemberExists         = errors.New("core: member already exists")
	ErrMemberNotFound       = errors.New("core: member not found")
	ErrCredentialNotFound   = errors.New("core: credential not found")
	ErrOperationUnsupported = errors.New("core: operation not yet supported")
)

var errorKinds = []ErrorKind{
	KindMail,
	KindFetchUsers,
	KindDuplicatedUser,
	KindDeletingUser,
	KindCreatingUser,
	KindTokenExpired,
	KindGeneric,
}

// NewKindError builds a tagged error. The source text, when present, is kept in the message only.
func NewKindError(kind ErrorKind, message string, source error) *goerrors.Error {
	if !isKnownKind(kind) {
		kind = KindGeneric
	}
	message = strings.TrimSpace(message)
	if message == "" {
		message = string(kind)
	}
	category := kindCategory(kind)

	var err *goerrors.Error
	if source != nil {
		err = goerrors.Wrap(source, category, fmt.Sprintf("%s: %v", message, source))
	} else {
		err = goerrors.New(message, category)
	}
	return err.
		WithCode(kindHTTPStatus(kind)).
		WithTextCode(string(kind))
}

// KindOf resolves the tag of err. Untagged errors are KindGeneric.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var rich *goerrors.Error
	if goerrors.As(err, &rich) {
		kind := ErrorKind(strings.TrimSpace(rich.TextCode))
		if isKnownKind(kind) {
			return kind
		}
	}
	return KindGeneric
}

func IsKind(err error, kind ErrorKind) bool {
	return err != nil && KindOf(err) == kind
}

func isKnownKind(kind ErrorKind) bool {
	for _, known := range errorKinds {
		if kind == known {
			return true
		}
	}
	return false
}

func kindCategory(kind ErrorKind) goerrors.Category {
	switch kind {
	case KindMail:
		return goerrors.CategoryBadInput
	case KindDuplicatedUser:
		return goerrors.CategoryConflict
	case KindFetchUsers, KindDeletingUser, KindCreatingUser, KindTokenExpired:
		return goerrors.CategoryExternal
	default:
		return goerrors.CategoryInternal
	}
}

func kindHTTPStatus(kind ErrorKind) int {
	switch kind {
	case KindMail:
		return http.StatusBadRequest
	case KindDuplicatedUser:
		return http.StatusConflict
	case KindFetchUsers, KindDeletingUser, KindCreatingUser, KindTokenExpired:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// HTTPStatus maps err onto the externally visible status class for the endpoint layer.
func HTTPStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}
	return kindHTTPStatus(KindOf(err))
}

func defaultErrorMapper(err error) *goerrors.Error {
	if err == nil {
		return nil
	}
	var rich *goerrors.Error
	if goerrors.As(err, &rich) {
		if strings.TrimSpace(rich.TextCode) == "" {
			rich.TextCode = string(KindGeneric)
		}
		if rich.Code == 0 {
			rich.Code = kindHTTPStatus(KindOf(rich))
		}
		return rich
	}
	return NewKindError(KindGeneric, "unexpected error", err)
}
