package ledger

import "github.com/northbank/ledgercore/pkg/money"

// CurrencyTotal pairs a count and a summed amount for one currency.
type CurrencyTotal struct {
	Currency money.Code
	Count    int64
	Total    money.Money
}

// TypeStat groups a count/total by (kind, currency) — spec §4.5.7 byType.
type TypeStat struct {
	Kind     TransactionKind
	Currency money.Code
	Count    int64
	Total    money.Money
}

// MonthlyStat groups a count/total by (year, month, kind) — spec §4.5.7
// monthlyTrend.
type MonthlyStat struct {
	Year  int
	Month int
	Kind  TransactionKind
	Count int64
	Total money.Money
}

// UserStats is the return shape of spec §4.5.7 userStats.
type UserStats struct {
	Summary      []CurrencyTotal
	ByType       []TypeStat
	MonthlyTrend []MonthlyStat
}

// Direction classifies an account-centric transaction as inbound or
// outbound (glossary: "Direction").
type Direction string

const (
	Incoming Direction = "INCOMING"
	Outgoing Direction = "OUTGOING"
)

// NetFlow is net movement for one currency over the stats window
// (glossary: "Net flow").
type NetFlow struct {
	Currency money.Code
	Net      money.Money
}

// DirectionTypeStat groups a count/total by (direction, kind, currency)
// — spec §4.5.7 byDirectionAndType.
type DirectionTypeStat struct {
	Direction Direction
	Kind      TransactionKind
	Currency  money.Code
	Count     int64
	Total     money.Money
}

// DailyStat groups a count/total by calendar day — spec §4.5.7 dailyTrend.
type DailyStat struct {
	Year  int
	Month int
	Day   int
	Count int64
	Total money.Money
}

// AccountStats is the return shape of spec §4.5.7 accountStats.
type AccountStats struct {
	NetFlow           []NetFlow
	ByDirectionAndType []DirectionTypeStat
	DailyTrend        []DailyStat
}

// SweepResult is the return shape of spec §4.5.6 sweepPending.
type SweepResult struct {
	Processed int
	Failed    int
	FailedIDs []string
}
