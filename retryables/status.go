package retryables

import (
	"errors"
	"fmt"
)

var ErrUnknownStatus = errors.New("unknown status")

type Status int

const (
	StatusNotYetCreated Status = iota + 1
	StatusCreated
	StatusRedeemed
	StatusExpired
	StatusFailedCreation
)

var statusNames = map[Status]string{
	StatusNotYetCreated:  "not_yet_created",
	StatusCreated:        "created",
	StatusRedeemed:       "redeemed",
	StatusExpired:        "expired",
	StatusFailedCreation: "failed_creation",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// IsTerminal reports whether the status can't change anymore.
func (s Status) IsTerminal() bool {
	return s == StatusRedeemed || s == StatusExpired || s == StatusFailedCreation
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func ParseStatus(name string) (Status, error) {
	for status, statusName := range statusNames {
		if statusName == name {
			return status, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownStatus, name)
}
