package storage

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"liquidityDesk/internal/model"
)

func TestJsonlAppendsOneRowPerLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "positions.jsonl")
	sink := NewJsonlStorage(path)

	rows := []model.PositionSnapshot{
		{ChainID: 1, Owner: "0xabc", TokenID: "101", Token0: "USDC", Token1: "WETH", Fee: 500, Liquidity: "1000"},
		{ChainID: 1, Owner: "0xabc", TokenID: "102", Token0: "USDC", Token1: "WETH", Fee: 500, Liquidity: "0", Degraded: true},
	}
	if err := sink.PutSnapshotBatch(rows); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// A second batch appends rather than truncates.
	if err := sink.PutSnapshotBatch(rows[:1]); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("open output: %v", err)
	}
	defer file.Close()

	var got []model.PositionSnapshot
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var row model.PositionSnapshot
		if err := json.Unmarshal(scanner.Bytes(), &row); err != nil {
			t.Fatalf("bad line %q: %v", scanner.Text(), err)
		}
		got = append(got, row)
	}
	if err := scanner.Err(); err != nil {
		t.Fatalf("scan: %v", err)
	}

	if len(got) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(got))
	}
	if got[0].TokenID != "101" || got[1].TokenID != "102" || got[2].TokenID != "101" {
		t.Fatalf("row order mismatch: %+v", got)
	}
	if !got[1].Degraded {
		t.Fatalf("degraded flag lost in round trip")
	}
}

func TestJsonlEmptyBatchIsNoop(t *testing.T) {
	path := filepath.Join(t.TempDir(), "positions.jsonl")
	sink := NewJsonlStorage(path)

	if err := sink.PutSnapshotBatch(nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("empty batch must not create the file")
	}
}
