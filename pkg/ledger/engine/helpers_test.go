package engine

import (
	"testing"
	"time"

	"github.com/northbank/ledgercore/pkg/money"
)

func mustMoney(t *testing.T, s string) money.Money {
	t.Helper()
	m, err := money.NewFromString(s, "USD")
	if err != nil {
		t.Fatalf("building money %q: %v", s, err)
	}
	return m
}

func money10(t *testing.T) money.Money   { return mustMoney(t, "10.00") }
func money30(t *testing.T) money.Money   { return mustMoney(t, "30.00") }
func money70(t *testing.T) money.Money   { return mustMoney(t, "70.00") }
func money95(t *testing.T) money.Money   { return mustMoney(t, "95.00") }
func money100(t *testing.T) money.Money  { return mustMoney(t, "100.00") }
func money1000(t *testing.T) money.Money { return mustMoney(t, "1000.00") }

func pastTime() time.Time {
	return time.Now().UTC().Add(-time.Hour)
}
