package ondisk

import (
	"fmt"

	"github.com/blockfs-go/uvfs6/errors"
)

func isAllowedNameByte(c byte) bool {
	switch {
	case c >= 'A' && c <= 'Z':
		return true
	case c >= 'a' && c <= 'z':
		return true
	case c >= '0' && c <= '9':
		return true
	case c == '_' || c == '.' || c == '\x00':
		return true
	}
	return false
}

// ValidateName checks that name is a legal path component: at least one
// and at most MaxNameLen characters, drawn only from [A-Za-z0-9_.\x00].
func ValidateName(name string) errors.DriverError {
	if len(name) == 0 {
		return errors.InvalidName.WithMessage("name must not be empty")
	}
	if len(name) > MaxNameLen {
		return errors.InvalidName.WithMessage(
			fmt.Sprintf("name %q must be at most %d characters", name, MaxNameLen),
		)
	}
	for i := 0; i < len(name); i++ {
		if !isAllowedNameByte(name[i]) {
			return errors.InvalidName.WithMessage(
				fmt.Sprintf("name %q contains a forbidden character", name),
			)
		}
	}
	return nil
}
