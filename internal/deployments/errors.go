package deployments

import (
	"errors"
	"fmt"
)

var (
	ErrMissingOwner       = errors.New("username is required")
	ErrMissingSession     = errors.New("session_id is required")
	ErrUnsupportedBotType = errors.New("unsupported bot type")

	ErrInvalidToken     = errors.New("invalid token")
	ErrNotAuthorized    = errors.New("token is not authorized for this app")
	ErrNotFound         = errors.New("deployment not found")
	ErrDuplicateAppName = errors.New("app name already exists")
	ErrDuplicateToken   = errors.New("access token already exists")

	ErrProvisioningFailed = errors.New("provisioning failed")
)

// IsValidation reports whether err was caused by bad request input.
func IsValidation(err error) bool {
	return errors.Is(err, ErrMissingOwner) ||
		errors.Is(err, ErrMissingSession) ||
		errors.Is(err, ErrUnsupportedBotType)
}

type QuotaExceededError struct {
	Current int64
	Limit   int64
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("deployment limit reached: %d of %d deployments used", e.Current, e.Limit)
}

// ProvisioningError is a failed provider call. Step names the provisioning
// stage that failed.
type ProvisioningError struct {
	Step string
	Err  error
}

func (e *ProvisioningError) Error() string {
	return fmt.Sprintf("provisioning failed at %s: %v", e.Step, e.Err)
}

func (e *ProvisioningError) Unwrap() error {
	return e.Err
}

func (e *ProvisioningError) Is(target error) bool {
	return target == ErrProvisioningFailed
}
