package ledger

import "regexp"

// accountNumberPattern matches spec §6.2's account number format.
var accountNumberPattern = regexp.MustCompile(`^ACCT-[0-9A-Fa-f]{4}-[0-9A-Fa-f]{4}-[0-9A-Fa-f]{4}$`)

// transactionIDPattern matches spec §6.2's transaction id format.
var transactionIDPattern = regexp.MustCompile(`^[A-Z]{3}-[0-9A-Z]+-[0-9A-F]{8}$`)
