// ledgerctl is the operator CLI for the ledger engine, grounded on the
// teacher's cmd/cli/main.go: a single binary dispatching on os.Args[1],
// wired against the storage-backed engine through pkg/config and
// internal/bootstrap.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/northbank/ledgercore/internal/bootstrap"
	"github.com/northbank/ledgercore/pkg/config"
	"github.com/northbank/ledgercore/pkg/ledger"
)

var (
	errColor = color.New(color.FgRed, color.Bold)
	okColor  = color.New(color.FgGreen, color.Bold)
	hdColor  = color.New(color.FgCyan, color.Bold)
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		errColor.Fprintln(os.Stderr, "load config:", err)
		os.Exit(1)
	}

	deps, err := bootstrap.Initialize(cfg)
	if err != nil {
		errColor.Fprintln(os.Stderr, "bootstrap:", err)
		os.Exit(1)
	}

	ctx := context.Background()
	cmd := os.Args[1]
	args := os.Args[2:]

	var runErr error
	switch cmd {
	case "open-account":
		runErr = runOpenAccount(ctx, deps, args)
	case "close-account":
		runErr = runCloseAccount(ctx, deps, args)
	case "reopen-account":
		runErr = runReopenAccount(ctx, deps, args)
	case "deposit":
		runErr = runDeposit(ctx, deps, args)
	case "withdraw":
		runErr = runWithdraw(ctx, deps, args)
	case "transfer":
		runErr = runTransfer(ctx, deps, args)
	case "fee":
		runErr = runFee(ctx, deps, args)
	case "reverse":
		runErr = runReverse(ctx, deps, args)
	case "sweep":
		runErr = runSweep(ctx, deps, args)
	case "show-transaction":
		runErr = runShowTransaction(ctx, deps, args)
	case "account-stats":
		runErr = runAccountStats(ctx, deps, args)
	case "user-stats":
		runErr = runUserStats(ctx, deps, args)
	default:
		errColor.Fprintln(os.Stderr, "unknown command:", cmd)
		printUsage()
		os.Exit(1)
	}

	if runErr != nil {
		errColor.Fprintln(os.Stderr, "error:", describeError(runErr))
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Usage: ledgerctl <command> [arguments]")
	fmt.Println("Commands:")
	fmt.Println("  open-account <owner-uuid> <kind> <currency>")
	fmt.Println("  close-account <admin-uuid> <account-number>")
	fmt.Println("  reopen-account <admin-uuid> <account-number>")
	fmt.Println("  deposit <owner-uuid> <account-number> <amount> <currency>")
	fmt.Println("  withdraw <owner-uuid> <account-number> <amount> <currency>")
	fmt.Println("  transfer <owner-uuid> <role> <from-account> <to-account> <amount> <currency>")
	fmt.Println("  fee <owner-uuid> <account-number> <amount> <currency> <description>")
	fmt.Println("  reverse <admin-uuid> <transaction-id> <reason>")
	fmt.Println("  sweep <older-than-duration>")
	fmt.Println("  show-transaction <transaction-id>")
	fmt.Println("  account-stats <account-number>")
	fmt.Println("  user-stats <owner-uuid>")
}

// describeError renders ledger.Error's Kind alongside the message so
// operators can tell a business rejection from an infra failure at a
// glance.
func describeError(err error) string {
	if kind, ok := ledger.KindOf(err); ok {
		return fmt.Sprintf("[%s] %v", kind, err)
	}
	return err.Error()
}

func requireArgs(args []string, n int, usage string) error {
	if len(args) < n {
		return fmt.Errorf("usage: %s", usage)
	}
	return nil
}

func runOpenAccount(ctx context.Context, deps *config.Deps, args []string) error {
	if err := requireArgs(args, 3, "open-account <owner-uuid> <kind> <currency>"); err != nil {
		return err
	}
	owner, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid owner uuid: %w", err)
	}
	acct, err := deps.Engine.OpenAccount(ctx, owner, ledger.AccountKind(args[1]), args[2])
	if err != nil {
		return err
	}
	okColor.Println("account opened")
	fmt.Printf("  number:   %s\n  owner:    %s\n  kind:     %s\n  currency: %s\n",
		acct.AccountNumber, acct.OwnerID, acct.Kind, acct.Currency)
	return nil
}

func runCloseAccount(ctx context.Context, deps *config.Deps, args []string) error {
	if err := requireArgs(args, 2, "close-account <admin-uuid> <account-number>"); err != nil {
		return err
	}
	caller, err := callerFrom(args[0], ledger.RoleAdmin)
	if err != nil {
		return err
	}
	acct, err := deps.Engine.CloseAccount(ctx, caller, args[1])
	if err != nil {
		return err
	}
	okColor.Println("account closed")
	fmt.Printf("  number: %s\n  active: %t\n", acct.AccountNumber, acct.Active)
	return nil
}

func runReopenAccount(ctx context.Context, deps *config.Deps, args []string) error {
	if err := requireArgs(args, 2, "reopen-account <admin-uuid> <account-number>"); err != nil {
		return err
	}
	caller, err := callerFrom(args[0], ledger.RoleAdmin)
	if err != nil {
		return err
	}
	acct, err := deps.Engine.ReopenAccount(ctx, caller, args[1])
	if err != nil {
		return err
	}
	okColor.Println("account reopened")
	fmt.Printf("  number: %s\n  active: %t\n", acct.AccountNumber, acct.Active)
	return nil
}

func runDeposit(ctx context.Context, deps *config.Deps, args []string) error {
	if err := requireArgs(args, 4, "deposit <owner-uuid> <account-number> <amount> <currency>"); err != nil {
		return err
	}
	caller, err := callerFrom(args[0], ledger.RoleCustomer)
	if err != nil {
		return err
	}
	txn, err := deps.Engine.Deposit(ctx, caller, ledger.DepositInput{
		UserID:        caller.UserID,
		AccountNumber: args[1],
		Amount:        args[2],
		Currency:      args[3],
	})
	if err != nil {
		return err
	}
	printTransaction(txn)
	return nil
}

func runWithdraw(ctx context.Context, deps *config.Deps, args []string) error {
	if err := requireArgs(args, 4, "withdraw <owner-uuid> <account-number> <amount> <currency>"); err != nil {
		return err
	}
	caller, err := callerFrom(args[0], ledger.RoleCustomer)
	if err != nil {
		return err
	}
	txn, err := deps.Engine.Withdraw(ctx, caller, ledger.WithdrawalInput{
		UserID:        caller.UserID,
		AccountNumber: args[1],
		Amount:        args[2],
		Currency:      args[3],
	})
	if err != nil {
		return err
	}
	printTransaction(txn)
	return nil
}

func runTransfer(ctx context.Context, deps *config.Deps, args []string) error {
	if err := requireArgs(args, 6, "transfer <owner-uuid> <role> <from-account> <to-account> <amount> <currency>"); err != nil {
		return err
	}
	caller, err := callerFrom(args[0], ledger.Role(args[1]))
	if err != nil {
		return err
	}
	txn, err := deps.Engine.Transfer(ctx, caller, ledger.TransferInput{
		UserID:            caller.UserID,
		FromAccountNumber: args[2],
		ToAccountNumber:   args[3],
		Amount:            args[4],
		Currency:          args[5],
	})
	if err != nil {
		return err
	}
	printTransaction(txn)
	return nil
}

func runFee(ctx context.Context, deps *config.Deps, args []string) error {
	if err := requireArgs(args, 5, "fee <owner-uuid> <account-number> <amount> <currency> <description>"); err != nil {
		return err
	}
	caller, err := callerFrom(args[0], ledger.RoleCustomer)
	if err != nil {
		return err
	}
	txn, err := deps.Engine.Fee(ctx, caller, ledger.FeeInput{
		UserID:        caller.UserID,
		AccountNumber: args[1],
		Amount:        args[2],
		Currency:      args[3],
		Description:   args[4],
	})
	if err != nil {
		return err
	}
	printTransaction(txn)
	return nil
}

func runReverse(ctx context.Context, deps *config.Deps, args []string) error {
	if err := requireArgs(args, 3, "reverse <admin-uuid> <transaction-id> <reason>"); err != nil {
		return err
	}
	caller, err := callerFrom(args[0], ledger.RoleAdmin)
	if err != nil {
		return err
	}
	txn, err := deps.Engine.Reverse(ctx, caller, ledger.ReversalInput{
		UserID:                caller.UserID,
		OriginalTransactionID: args[1],
		Reason:                args[2],
	})
	if err != nil {
		return err
	}
	printTransaction(txn)
	return nil
}

func runSweep(ctx context.Context, deps *config.Deps, args []string) error {
	if err := requireArgs(args, 1, "sweep <older-than-duration>"); err != nil {
		return err
	}
	olderThan, err := time.ParseDuration(args[0])
	if err != nil {
		return fmt.Errorf("invalid duration: %w", err)
	}
	result, err := deps.Engine.SweepPending(ctx, olderThan)
	if err != nil {
		return err
	}
	hdColor.Println("sweep complete")
	fmt.Printf("  processed: %d\n  failed:    %d\n", result.Processed, result.Failed)
	for _, id := range result.FailedIDs {
		fmt.Println("  failed id:", id)
	}
	return nil
}

func runShowTransaction(ctx context.Context, deps *config.Deps, args []string) error {
	if err := requireArgs(args, 1, "show-transaction <transaction-id>"); err != nil {
		return err
	}
	txn, err := deps.Engine.FindTransaction(ctx, args[0])
	if err != nil {
		return err
	}
	printTransaction(txn)
	return nil
}

func runAccountStats(ctx context.Context, deps *config.Deps, args []string) error {
	if err := requireArgs(args, 1, "account-stats <account-number>"); err != nil {
		return err
	}
	stats, err := deps.Engine.AccountStats(ctx, args[0], time.Time{}, time.Now().UTC())
	if err != nil {
		return err
	}
	hdColor.Println("account stats for", args[0])
	fmt.Printf("%+v\n", stats)
	return nil
}

func runUserStats(ctx context.Context, deps *config.Deps, args []string) error {
	if err := requireArgs(args, 1, "user-stats <owner-uuid>"); err != nil {
		return err
	}
	owner, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid owner uuid: %w", err)
	}
	stats, err := deps.Engine.UserStats(ctx, owner, time.Time{}, time.Now().UTC())
	if err != nil {
		return err
	}
	hdColor.Println("user stats for", owner)
	fmt.Printf("%+v\n", stats)
	return nil
}

func callerFrom(rawUserID string, role ledger.Role) (ledger.Caller, error) {
	userID, err := uuid.Parse(rawUserID)
	if err != nil {
		return ledger.Caller{}, fmt.Errorf("invalid user uuid: %w", err)
	}
	return ledger.Caller{UserID: userID, Role: role}, nil
}

func printTransaction(txn *ledger.Transaction) {
	okColor.Println("transaction", txn.Status)
	fmt.Printf("  id:       %s\n  kind:     %s\n  amount:   %s %s\n  from:     %s\n  to:       %s\n",
		txn.TransactionID, txn.Kind, txn.Amount.String(), txn.Currency,
		txn.FromAccountNumber, txn.ToAccountNumber)
}
