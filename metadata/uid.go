package metadata

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrInvalidUID indicates an identifier that violates DICOM UID syntax.
var ErrInvalidUID = errors.New("invalid uid")

// uidRoot is the UUID-derived prefix the standard reserves for
// self-assigned identifiers, usable without any registration.
const uidRoot = "2.25."

const maxUIDLength = 64

// ValidateUID enforces UID syntax: dot-separated numeric components, no
// leading zeros (a literal "0" component is fine), 64 characters at most.
func ValidateUID(uid string) error {
	if uid == "" {
		return fmt.Errorf("%w: empty", ErrInvalidUID)
	}
	if len(uid) > maxUIDLength {
		return fmt.Errorf("%w: %q is %d characters, limit is %d", ErrInvalidUID, uid, len(uid), maxUIDLength)
	}

	for _, component := range strings.Split(uid, ".") {
		if component == "" {
			return fmt.Errorf("%w: %q contains an empty component", ErrInvalidUID, uid)
		}
		for _, r := range component {
			if r < '0' || r > '9' {
				return fmt.Errorf("%w: %q contains non-numeric component %q", ErrInvalidUID, uid, component)
			}
		}
		if len(component) > 1 && component[0] == '0' {
			return fmt.Errorf("%w: component %q of %q has a leading zero", ErrInvalidUID, component, uid)
		}
	}

	return nil
}

// NewUID mints a globally unique identifier by rendering a random UUID in
// decimal beneath the 2.25 root.
func NewUID() string {
	u := uuid.New()

	return uidRoot + new(big.Int).SetBytes(u[:]).String()
}

// DeriveUID mints an identifier beneath an organization root using a
// timestamp plus random entropy. The second return reports whether the
// result actually lives under the root: a root so long that no unique suffix
// fits within 64 characters forces a fall back to a fresh 2.25 identifier.
func DeriveUID(root string) (string, bool) {
	if root == "" {
		return NewUID(), false
	}

	u := uuid.New()
	suffix := fmt.Sprintf("%d.%d", time.Now().Unix(), binary.BigEndian.Uint32(u[:4]))

	uid := root + "." + suffix
	if len(uid) > maxUIDLength {
		return NewUID(), false
	}

	return uid, true
}
