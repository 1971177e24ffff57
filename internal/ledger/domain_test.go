package ledger

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func validInput() EntryInput {
	return EntryInput{
		JournalType: "GENERAL",
		Date:        time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC),
		Description: "Office rent",
		CreatedBy:   "tester",
		Lines: []LineInput{
			{AccountID: 1, Debit: 1200},
			{AccountID: 2, Credit: 1200},
		},
	}
}

func TestEntryInputValidateAccepts(t *testing.T) {
	if err := validInput().Validate(); err != nil {
		t.Fatalf("expected valid input, got %v", err)
	}
}

func TestEntryInputValidateAcceptsSplitLines(t *testing.T) {
	in := validInput()
	in.Lines = []LineInput{
		{AccountID: 1, Debit: 700},
		{AccountID: 3, Debit: 500},
		{AccountID: 2, Credit: 1200},
	}
	if err := in.Validate(); err != nil {
		t.Fatalf("expected valid split entry, got %v", err)
	}
}

func TestEntryInputValidateCollectsViolations(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*EntryInput)
		want   string
	}{
		{
			name:   "missing journal type",
			mutate: func(in *EntryInput) { in.JournalType = " " },
			want:   "journal type is required",
		},
		{
			name:   "missing date",
			mutate: func(in *EntryInput) { in.Date = time.Time{} },
			want:   "entry date is required",
		},
		{
			name:   "single line",
			mutate: func(in *EntryInput) { in.Lines = in.Lines[:1] },
			want:   "at least two lines",
		},
		{
			name:   "missing account",
			mutate: func(in *EntryInput) { in.Lines[0].AccountID = 0 },
			want:   "line 1: account is required",
		},
		{
			name:   "negative amount",
			mutate: func(in *EntryInput) { in.Lines[0].Debit = -5; in.Lines[1].Credit = -5 },
			want:   "line 1: amounts cannot be negative",
		},
		{
			name:   "both sides on one line",
			mutate: func(in *EntryInput) { in.Lines[0].Credit = 1200; in.Lines[1].Debit = 1200 },
			want:   "line 1: cannot carry both debit and credit",
		},
		{
			name:   "unbalanced",
			mutate: func(in *EntryInput) { in.Lines[1].Credit = 1100 },
			want:   "entry does not balance",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := validInput()
			tc.mutate(&in)
			err := in.Validate()
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			found := false
			for _, msg := range verr.Messages {
				if strings.Contains(msg, tc.want) {
					found = true
				}
			}
			if !found {
				t.Fatalf("expected message containing %q, got %v", tc.want, verr.Messages)
			}
		})
	}
}

func TestEntryInputValidateToleratesRoundingAtTwoDecimals(t *testing.T) {
	in := validInput()
	in.Lines = []LineInput{
		{AccountID: 1, Debit: 0.1},
		{AccountID: 3, Debit: 0.2},
		{AccountID: 2, Credit: 0.3},
	}
	if err := in.Validate(); err != nil {
		t.Fatalf("expected 0.1+0.2 to balance 0.3 at two decimals, got %v", err)
	}
}

func TestEntryInputValidateReportsMultipleViolations(t *testing.T) {
	in := EntryInput{}
	err := in.Validate()
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(verr.Messages) < 3 {
		t.Fatalf("expected every violation collected, got %v", verr.Messages)
	}
}

func TestAccountTypeDebitNormal(t *testing.T) {
	if !AccountTypeAsset.DebitNormal() || !AccountTypeExpense.DebitNormal() {
		t.Fatal("asset and expense accounts are debit-normal")
	}
	if AccountTypeLiability.DebitNormal() || AccountTypeEquity.DebitNormal() || AccountTypeRevenue.DebitNormal() {
		t.Fatal("liability, equity, and revenue accounts are credit-normal")
	}
}
