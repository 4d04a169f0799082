// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package handshake

import "fmt"

// ValidateTables checks the two table invariants that hold regardless of
// any particular Context: every sequence table ends with
// MessageApplicationData — except the bootstrap Variant 0 table, which ends
// with MessageServerHello since the real Variant isn't known until then (see
// [NegotiationComplete]) — and the actionTable entry for every message that
// appears in some sequence table is known.
//
// This runs once at package init (see init below) rather than per [Perform]
// call: the tables are static and shared across every session, so there is
// nothing a caller-specific Context could make newly invalid.
func ValidateTables() error {
	for variant, seq := range sequenceTables {
		if len(seq) == 0 {
			return fmt.Errorf("handshake: sequence table for variant %v is empty", variant)
		}
		if last := seq[len(seq)-1]; variant == 0 {
			if last != MessageServerHello {
				return fmt.Errorf("handshake: bootstrap sequence table does not end with ServerHello (ends with %v)", last)
			}
		} else if last != MessageApplicationData {
			return fmt.Errorf("handshake: sequence table for variant %v does not end with APPLICATION_DATA (ends with %v)", variant, last)
		}
		for _, id := range seq {
			if _, ok := actionTable[id]; !ok {
				return fmt.Errorf("handshake: sequence table for variant %v references %v, which has no action table entry", variant, id)
			}
		}
	}
	return nil
}

func init() {
	if err := ValidateTables(); err != nil {
		panic(err)
	}
}

// ValidateCallbacks checks that cb supplies a send callback for every
// message in variant's sequence that the local role sends, and a recv
// callback for every message it receives. It does not require callbacks for
// messages absent from variant's sequence table.
// NewContext does not call this automatically, since a caller legitimately
// building up cb incrementally (e.g. while still deciding the Variant)
// should be able to defer the check to whenever it is ready.
func ValidateCallbacks(variant Variant, role Role, cb map[MessageID]Callbacks) error {
	seq, ok := sequenceTables[variant]
	if !ok {
		return fmt.Errorf("handshake: no sequence table for variant %v", variant)
	}
	for _, id := range seq {
		act := actionTable[id]
		if act.complete {
			continue
		}
		entry := cb[id]
		if act.sender == role {
			if entry.Send == nil {
				return fmt.Errorf("handshake: variant %v requires a Send callback for %v", variant, id)
			}
		} else if entry.Recv == nil {
			return fmt.Errorf("handshake: variant %v requires a Recv callback for %v", variant, id)
		}
	}
	return nil
}
