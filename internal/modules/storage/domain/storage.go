package domain

import (
	"errors"
	"fmt"
)

// Key is a logical record name. Only the fixed set below is accepted so a
// reload always knows where to look.
type Key string

const (
	KeyCapturedImages Key = "capturedImages"
	KeyInspectorName  Key = "inspectorName"
	KeySignature      Key = "signature"
	KeyReportStarted  Key = "reportStarted"
)

// LogicalKeys lists every key in a stable order.
var LogicalKeys = []Key{KeyCapturedImages, KeyInspectorName, KeySignature, KeyReportStarted}

func (k Key) Validate() error {
	for _, known := range LogicalKeys {
		if k == known {
			return nil
		}
	}
	return fmt.Errorf("unknown storage key %q", string(k))
}

type TierName string

const (
	TierTransactional TierName = "transactional"
	TierSimple        TierName = "simple"
)

// ErrQuotaExceeded is returned by a tier when a write would exceed its capacity.
var ErrQuotaExceeded = errors.New("quota exceeded")

type KeyStatus struct {
	Key     Key
	Tier    TierName
	Present bool
}

type Status struct {
	TransactionalAvailable bool
	Keys                   []KeyStatus
	LastWarning            string
}
