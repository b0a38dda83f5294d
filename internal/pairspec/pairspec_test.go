package pairspec

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestParse_DirectList(t *testing.T) {
	got, err := Parse(" BTC/USD, ETH/USD,,BTC/USD ,SOL/EUR ")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	want := []string{"BTC/USD", "ETH/USD", "SOL/EUR"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestParse_TextFile(t *testing.T) {
	path := writeFile(t, "pairs.txt", "# watchlist\nBTC/USD\n\n  ETH/USD  \nBTC/USD\nXRP/USD\n")

	got, err := Parse(path)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if want := []string{"BTC/USD", "ETH/USD", "XRP/USD"}; !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}

	got, err = Parse(path + ":2")
	if err != nil {
		t.Fatalf("Parse with limit: %v", err)
	}
	if want := []string{"BTC/USD", "ETH/USD"}; !reflect.DeepEqual(got, want) {
		t.Errorf("limited: got %v, want %v", got, want)
	}
}

func TestParse_CSVColumn(t *testing.T) {
	path := writeFile(t, "ranking.csv",
		"pair,base_volume_24h,quote_volume_24h,usd_volume_24h\n"+
			"XBT/USD,10,20,20\n"+
			"ETH/EUR,1,2,2.2\n"+
			",1,1,1\n"+
			"SOL/USD,5,5,5\n")

	got, err := Parse(path + ":pair")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if want := []string{"XBT/USD", "ETH/EUR", "SOL/USD"}; !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}

	got, err = Parse(path + ":pair:2")
	if err != nil {
		t.Fatalf("Parse with limit: %v", err)
	}
	if want := []string{"XBT/USD", "ETH/EUR"}; !reflect.DeepEqual(got, want) {
		t.Errorf("limited: got %v, want %v", got, want)
	}
}

func TestParse_Errors(t *testing.T) {
	csvPath := writeFile(t, "ranking.csv", "pair,usd\nXBT/USD,1\n")
	txtPath := writeFile(t, "pairs.txt", "# only comments\n\n")

	tests := []struct {
		name    string
		spec    string
		wantErr string
	}{
		{"empty", "   ", "empty input"},
		{"only separators", " , ,", "no pairs"},
		{"csv without column", csvPath, "missing column name"},
		{"csv unknown column", csvPath + ":symbol", `column "symbol" not found`},
		{"csv bad limit", csvPath + ":pair:ten", "invalid limit"},
		{"text zero limit", txtPath + ":0", "invalid limit"},
		{"text no pairs", txtPath, "no pairs"},
		{"missing file", filepath.Join(t.TempDir(), "nope.txt"), "no such file"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.spec)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestParse_EmptyIsErrEmpty(t *testing.T) {
	_, err := Parse("")
	if !errors.Is(err, ErrEmpty) {
		t.Errorf("expected ErrEmpty, got %v", err)
	}
}
