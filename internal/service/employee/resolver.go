package employee

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/cmlabs-hris/timebank-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/timebank-backend-go/internal/pkg/validator"
	"golang.org/x/sync/singleflight"
)

// CodeResolver maps user IDs to payroll employee codes for one load session.
// Resolved codes are cached for the lifetime of the resolver; misses and
// lookup errors are not, so a later call retries them.
type CodeResolver struct {
	directory employee.Directory

	group singleflight.Group
	mu    sync.RWMutex
	codes map[string]string
}

func NewCodeResolver(directory employee.Directory) *CodeResolver {
	return &CodeResolver{
		directory: directory,
		codes:     make(map[string]string),
	}
}

// Resolve returns employee.ErrEmployeeCodeNotFound when the user has no code.
func (r *CodeResolver) Resolve(ctx context.Context, userID string) (string, error) {
	r.mu.RLock()
	code, ok := r.codes[userID]
	r.mu.RUnlock()
	if ok {
		return code, nil
	}

	v, err, _ := r.group.Do(userID, func() (any, error) {
		code, err := r.directory.GetEmployeeCode(ctx, userID)
		if err != nil {
			return "", err
		}
		code = strings.TrimSpace(code)
		if code == "" {
			return "", employee.ErrEmployeeCodeNotFound
		}
		if !validator.IsValidEmployeeCode(code) {
			slog.Warn("Ignoring malformed payroll employee code", "user_id", userID, "code", code)
			return "", fmt.Errorf("%w: malformed code %q", employee.ErrEmployeeCodeNotFound, code)
		}

		r.mu.Lock()
		r.codes[userID] = code
		r.mu.Unlock()
		return code, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// IsMiss reports whether err means the user simply has no payroll code.
func IsMiss(err error) bool {
	return errors.Is(err, employee.ErrEmployeeCodeNotFound) || errors.Is(err, employee.ErrEmployeeNotFound)
}
