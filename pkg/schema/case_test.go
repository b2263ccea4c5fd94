package schema

import "testing"

func validCase() FraudCase {
	return FraudCase{
		Username:           "alice",
		SecurityIdentifier: "ST-1",
		CardEnding:         "4242",
		Amount:             "$10.00",
		Merchant:           "Corner Cafe",
		Location:           "Boston, MA",
		Timestamp:          "2026-08-25T08:00:00Z",
		SecurityQuestion:   "Favorite color?",
		SecurityAnswer:     "Green",
	}
}

func TestNormalizeName(t *testing.T) {
	if got := NormalizeName("  Alice "); got != "alice" {
		t.Errorf("Expected alice, got %q", got)
	}
}

func TestMatchesName(t *testing.T) {
	c := validCase()
	if !c.MatchesName(" ALICE") {
		t.Error("Expected trimmed, case-insensitive match")
	}
	if c.MatchesName("alicia") {
		t.Error("Did not expect a match for a different name")
	}
}

func TestAnswerMatches(t *testing.T) {
	c := validCase()
	if !c.AnswerMatches(" green ") {
		t.Error("Expected trimmed, case-insensitive answer match")
	}
	if c.AnswerMatches("blue") {
		t.Error("Did not expect wrong answer to match")
	}
}

func TestValidate(t *testing.T) {
	c := validCase()
	if err := c.Validate(); err != nil {
		t.Errorf("Expected valid case, got %v", err)
	}

	c.Amount = ""
	if err := c.Validate(); err == nil {
		t.Error("Expected error for missing amount")
	}
}

func TestApplyDefaults(t *testing.T) {
	c := validCase()
	c.ApplyDefaults()
	if c.Status != StatusPendingReview {
		t.Errorf("Expected pending_review default, got %q", c.Status)
	}

	c.Status = StatusConfirmedSafe
	c.ApplyDefaults()
	if c.Status != StatusConfirmedSafe {
		t.Error("ApplyDefaults must not overwrite an existing status")
	}
}

func TestTransactionSummary(t *testing.T) {
	got := validCase().TransactionSummary()
	want := "The suspicious transaction is for $10.00 at merchant 'Corner Cafe', located in Boston, MA, on 2026-08-25T08:00:00Z, using the card ending with 4242."
	if got != want {
		t.Errorf("Unexpected summary:\n got %q\nwant %q", got, want)
	}
}
