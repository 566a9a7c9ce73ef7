// Package mint generates globally unique, prefix-tagged identifiers for
// the ledger core: public account numbers and transaction ids (spec
// §4.1). Its only state is a per-process nonce and an atomic counter,
// and it is safe for concurrent use from many goroutines.
package mint

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/crypto/blake2b"
)

// processNonce is mixed into every minted suffix so that two processes
// racing on the same wall-clock millisecond still produce distinct
// identifiers with overwhelming probability; counter further separates
// calls made within the same process in the same nanosecond.
var (
	processNonce [16]byte
	counter      uint64
)

func init() {
	if _, err := rand.Read(processNonce[:]); err != nil {
		panic(fmt.Sprintf("mint: failed to seed process nonce: %v", err))
	}
}

// validPrefixes enumerates the transaction-id prefixes recognized by
// spec §6.2.
var validPrefixes = map[string]bool{
	"DEP": true,
	"WDR": true,
	"TRF": true,
	"FEE": true,
	"REV": true,
	"SYS": true,
	"TXN": true,
}

// suffix returns n upper-case hex characters derived from a
// cryptographic RNG, additionally mixed through BLAKE2b with the
// process nonce and a monotonic counter for cross-process and
// same-nanosecond collision resistance.
func suffix(n int) string {
	raw := make([]byte, 16)
	if _, err := rand.Read(raw); err != nil {
		panic(fmt.Sprintf("mint: rng failure: %v", err))
	}
	seq := atomic.AddUint64(&counter, 1)

	h, err := blake2b.New256(nil)
	if err != nil {
		panic(fmt.Sprintf("mint: blake2b init failure: %v", err))
	}
	h.Write(processNonce[:])
	h.Write(raw)
	var seqBuf [8]byte
	for i := range seqBuf {
		seqBuf[i] = byte(seq >> (8 * i))
	}
	h.Write(seqBuf[:])
	digest := h.Sum(nil)

	hexStr := strings.ToUpper(fmt.Sprintf("%x", digest))
	for len(hexStr) < n {
		hexStr += hexStr
	}
	return hexStr[:n]
}

// AccountNumber mints a new human-facing account number in the form
// ACCT-XXXX-XXXX-XXXX (spec §6.2).
func AccountNumber() string {
	return fmt.Sprintf("ACCT-%s-%s-%s", suffix(4), suffix(4), suffix(4))
}

// TransactionID mints a new transaction id in the form
// {PREFIX}-{T}-{R}: T is the base-36 upper-case encoding of the current
// wall-clock millisecond, R is 8 upper-case hex characters (spec §4.1).
// Panics if prefix is not one of the recognized prefixes (spec §6.2) —
// callers pass a compile-time-known constant, so this is a programmer
// error, not a runtime condition.
func TransactionID(prefix string) string {
	if !validPrefixes[prefix] {
		panic(fmt.Sprintf("mint: unrecognized transaction id prefix %q", prefix))
	}
	millis := time.Now().UnixMilli()
	t := strings.ToUpper(big.NewInt(millis).Text(36))
	return fmt.Sprintf("%s-%s-%s", prefix, t, suffix(8))
}

// IsValidAccountNumber reports whether s matches the account number
// format of spec §6.2.
func IsValidAccountNumber(s string) bool {
	return accountNumberRe.MatchString(s)
}

// IsValidTransactionID reports whether s matches the transaction id
// format of spec §6.2.
func IsValidTransactionID(s string) bool {
	return transactionIDRe.MatchString(s)
}

// MillisFromTransactionID recovers the millisecond timestamp embedded
// in a transaction id, reporting false if id does not have the
// {PREFIX}-{T}-{R} shape or T is not base-36.
func MillisFromTransactionID(id string) (int64, bool) {
	parts := strings.Split(id, "-")
	if len(parts) != 3 {
		return 0, false
	}
	v, err := strconv.ParseInt(parts[1], 36, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
