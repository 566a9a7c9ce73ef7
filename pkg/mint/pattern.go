package mint

import "regexp"

var (
	accountNumberRe = regexp.MustCompile(`^ACCT-[0-9A-Fa-f]{4}-[0-9A-Fa-f]{4}-[0-9A-Fa-f]{4}$`)
	transactionIDRe = regexp.MustCompile(`^[A-Z]{3}-[0-9A-Z]+-[0-9A-F]{8}$`)
)
