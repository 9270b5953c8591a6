/*
 * Copyright (c) 2025-present unTill Software Development Group B.V.
 */

package istorage

import (
	"fmt"
	"regexp"
)

// Storage name which can be used as file name or keyspace name
type SafeName struct {
	name string
}

const MaxSafeNameLength = 48

var safeNameRegexp = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]*$`)

// Returns safe name or ErrInvalidSafeName
func NewSafeName(name string) (SafeName, error) {
	if len(name) > MaxSafeNameLength || !safeNameRegexp.MatchString(name) {
		return SafeName{}, fmt.Errorf("%w: «%s»", ErrInvalidSafeName, name)
	}
	return SafeName{name}, nil
}

func MustSafeName(name string) SafeName {
	sn, err := NewSafeName(name)
	if err != nil {
		panic(err)
	}
	return sn
}

func (sn SafeName) String() string { return sn.name }
