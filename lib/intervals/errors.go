//
// Copyright (C) 2015-2022 Charles E. Vejnar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://www.mozilla.org/MPL/2.0/.
//

package intervals

import "fmt"

// InputError reports a missing or empty required interval set.
type InputError struct {
	Msg string
}

func (e *InputError) Error() string {
	return e.Msg
}

// FormatError reports a malformed record in an interval file.
type FormatError struct {
	Path string
	Line int
	Msg  string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("%s:%d: %s", e.Path, e.Line, e.Msg)
}

// ConsistencyError reports a violated internal invariant, for example
// overlapping isochore cells.
type ConsistencyError struct {
	Msg string
}

func (e *ConsistencyError) Error() string {
	return e.Msg
}
