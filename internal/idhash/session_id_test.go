package idhash

import "testing"

func TestComputeSessionID(t *testing.T) {
	got := ComputeSessionID("tweet-1", "Reuters", 1700000000000)

	if len(got) != 32 {
		t.Errorf("ComputeSessionID() length = %d, want 32", len(got))
	}

	// Verify determinism: same inputs should produce same output
	got2 := ComputeSessionID("tweet-1", "Reuters", 1700000000000)
	if got != got2 {
		t.Errorf("ComputeSessionID() not deterministic: %s != %s", got, got2)
	}
}

func TestComputeSessionID_DifferentInputs(t *testing.T) {
	base := ComputeSessionID("tweet-1", "Reuters", 1700000000000)

	// Different event id should produce different hash
	diffEvent := ComputeSessionID("tweet-2", "Reuters", 1700000000000)
	if base == diffEvent {
		t.Error("Different event id should produce different hash")
	}

	// Different handle should produce different hash
	diffHandle := ComputeSessionID("tweet-1", "WSJ", 1700000000000)
	if base == diffHandle {
		t.Error("Different handle should produce different hash")
	}

	// Different start time should produce different hash
	diffStart := ComputeSessionID("tweet-1", "Reuters", 1700000000001)
	if base == diffStart {
		t.Error("Different start time should produce different hash")
	}
}

func TestComputeTradeID_DifferentInputs(t *testing.T) {
	base := ComputeTradeID("sess-1", "market-1", "YES", 0)

	if len(base) != 32 {
		t.Errorf("ComputeTradeID() length = %d, want 32", len(base))
	}

	diffMarket := ComputeTradeID("sess-1", "market-2", "YES", 0)
	if base == diffMarket {
		t.Error("Different market id should produce different hash")
	}

	diffSide := ComputeTradeID("sess-1", "market-1", "NO", 0)
	if base == diffSide {
		t.Error("Different side should produce different hash")
	}

	diffAttempt := ComputeTradeID("sess-1", "market-1", "YES", 1)
	if base == diffAttempt {
		t.Error("Different attempt index should produce different hash")
	}
}

func TestComputeStepID_Determinism(t *testing.T) {
	results := make([]string, 10)
	for i := 0; i < 10; i++ {
		results[i] = ComputeStepID("sess-1", "filtering", 1)
	}

	for i := 1; i < len(results); i++ {
		if results[i] != results[0] {
			t.Errorf("Determinism failed: results[%d]=%s != results[0]=%s", i, results[i], results[0])
		}
	}
}
