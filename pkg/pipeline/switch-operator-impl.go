/*
 * Copyright (c) 2025-present unTill Software Development Group B.V.
 */

package pipeline

import (
	"context"
	"fmt"
)

func (s switchOperator) Close() {
	for _, branch := range s.branches {
		branch.Close()
	}
}

func (s switchOperator) DoSync(ctx context.Context, work any) (err error) {
	name, err := s.switchLogic.Switch(work)
	if err != nil {
		return err
	}
	branch, ok := s.branches[name]
	if !ok {
		return fmt.Errorf("%w: «%s»", ErrUnknownBranch, name)
	}
	return branch.DoSync(ctx, work)
}

func SwitchOperator(switchLogic ISwitch, branch SwitchOperatorOptionFunc, branches ...SwitchOperatorOptionFunc) ISyncOperator {
	if switchLogic == nil {
		panic("switch must be not nil")
	}
	switchOperator := &switchOperator{
		switchLogic: switchLogic,
		branches:    make(map[string]ISyncOperator),
	}
	branch(switchOperator)
	for _, branch := range branches {
		branch(switchOperator)
	}
	return switchOperator
}

func SwitchBranch(name string, operator ISyncOperator) SwitchOperatorOptionFunc {
	return func(switchOperator *switchOperator) {
		switchOperator.branches[name] = operator
	}
}

// Switch logic as a function
type SwitchFunc func(work any) (branchName string, err error)

func (f SwitchFunc) Switch(work any) (string, error) { return f(work) }
