package bootstrap

import (
	"context"
	"errors"
	"strings"

	"github.com/ruteri/secretvault-builder/interfaces"
)

// duplicateKeyMarker is what storage nodes report when a builder DID is
// already registered.
const duplicateKeyMarker = "duplicate key"

// RegistrationOutcome is how EnsureRegistered concluded.
type RegistrationOutcome int

const (
	// AlreadyRegistered means the profile read succeeded and nothing was written.
	AlreadyRegistered RegistrationOutcome = iota
	// Registered means this call registered the builder.
	Registered
	// RecoveredConflict means registration hit a duplicate key, i.e. a
	// concurrent caller registered the same identity first.
	RecoveredConflict
)

func (o RegistrationOutcome) String() string {
	switch o {
	case AlreadyRegistered:
		return "already-registered"
	case Registered:
		return "registered"
	case RecoveredConflict:
		return "recovered-conflict"
	default:
		return "unknown"
	}
}

// RegistrationResult reports the outcome of EnsureRegistered. ProfileError is
// the profile read error that triggered the registration attempt, if any.
// Suppressed is the duplicate key error of a RecoveredConflict.
type RegistrationResult struct {
	Outcome      RegistrationOutcome
	ProfileError error
	Suppressed   error
}

// IsDuplicateIdentityError reports whether err says the identity is already
// registered. Nodes expose no typed error for this, only the database message.
// An error joining several node failures matches only if every one of them is
// a duplicate.
func IsDuplicateIdentityError(err error) bool {
	if err == nil {
		return false
	}

	var joined interface{ Unwrap() []error }
	if errors.As(err, &joined) {
		errs := joined.Unwrap()
		if len(errs) == 0 {
			return false
		}
		for _, e := range errs {
			if !IsDuplicateIdentityError(e) {
				return false
			}
		}
		return true
	}

	return strings.Contains(err.Error(), duplicateKeyMarker)
}

// EnsureRegistered registers did with builder unless its profile can already
// be read. Any profile read error is taken as "not registered". A duplicate key
// failure during registration is recovered; any other failure is returned
// unchanged.
func EnsureRegistered(ctx context.Context, builder interfaces.BuilderClient, did, name string) (RegistrationResult, error) {
	_, profileErr := builder.ReadProfile(ctx)
	if profileErr == nil {
		return RegistrationResult{Outcome: AlreadyRegistered}, nil
	}

	err := builder.Register(ctx, interfaces.RegisterBuilderRequest{
		DID:  did,
		Name: name,
	})
	switch {
	case err == nil:
		return RegistrationResult{Outcome: Registered, ProfileError: profileErr}, nil
	case IsDuplicateIdentityError(err):
		return RegistrationResult{Outcome: RecoveredConflict, ProfileError: profileErr, Suppressed: err}, nil
	default:
		return RegistrationResult{ProfileError: profileErr}, err
	}
}
