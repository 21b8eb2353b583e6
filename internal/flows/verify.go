package flows

import (
	"context"

	"github.com/MrEthical07/authcore/jwt"
)

// VerifyIntent mirrors the root Intent without importing it.
type VerifyIntent int

const (
	VerifyAccess VerifyIntent = iota
	VerifyRefresh
)

// VerifyFailureKind classifies verification failures for root-level mapping.
type VerifyFailureKind int

const (
	VerifyFailureNone VerifyFailureKind = iota
	VerifyFailureMissing
	VerifyFailureDecode
	VerifyFailureRevoked
	VerifyFailureStore
	VerifyFailureIntent
)

// String names the failure for audit metadata.
func (k VerifyFailureKind) String() string {
	switch k {
	case VerifyFailureNone:
		return "none"
	case VerifyFailureMissing:
		return "missing"
	case VerifyFailureDecode:
		return "invalid"
	case VerifyFailureRevoked:
		return "revoked"
	case VerifyFailureStore:
		return "store_error"
	case VerifyFailureIntent:
		return "intent_mismatch"
	default:
		return "unknown"
	}
}

// VerifyResult returns either decoded claims or a classified failure.
type VerifyResult struct {
	Failure VerifyFailureKind
	Err     error
	Claims  *jwt.Claims
}

// VerifyDeps captures bearer verification dependencies.
type VerifyDeps struct {
	Decode    func(string) (*jwt.Claims, error)
	IsRevoked func(context.Context, string) (bool, error)
}

// RunVerify checks a bearer token in a fixed order: presence, signature and
// claims, blocklist, then intent. It never writes.
func RunVerify(ctx context.Context, tokenStr string, intent VerifyIntent, deps VerifyDeps) VerifyResult {
	if tokenStr == "" {
		return VerifyResult{Failure: VerifyFailureMissing}
	}

	claims, err := deps.Decode(tokenStr)
	if err != nil {
		return VerifyResult{Failure: VerifyFailureDecode, Err: err}
	}

	revoked, err := deps.IsRevoked(ctx, claims.JTI())
	if err != nil {
		return VerifyResult{Failure: VerifyFailureStore, Err: err, Claims: claims}
	}
	if revoked {
		return VerifyResult{Failure: VerifyFailureRevoked, Claims: claims}
	}

	want := jwt.KindAccess
	if intent == VerifyRefresh {
		want = jwt.KindRefresh
	}
	if claims.Kind() != want {
		return VerifyResult{Failure: VerifyFailureIntent, Claims: claims}
	}

	return VerifyResult{Claims: claims}
}
