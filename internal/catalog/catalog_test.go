package catalog

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"

	"kraken-tools/internal/kraken"
	"kraken-tools/internal/kraken/stub"
)

func quietLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func TestLoad_FiltersAndSorts(t *testing.T) {
	client := stub.NewRESTClient()
	client.AddPair("XXBTZUSD", "XBT/USD")
	client.AddPair("XETHZUSD", "ETH/USD")
	client.AddPair("ADAEUR", "ADA/EUR")
	client.Pairs["LEGACY.d"] = kraken.AssetPair{Altname: "LEGACY"}

	loader := NewLoader(LoaderOptions{Client: client, Logger: quietLogger()})
	cat, err := loader.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	want := []string{"ADAEUR", "XETHZUSD", "XXBTZUSD"}
	if len(cat.IDs) != len(want) {
		t.Fatalf("expected %d ids, got %v", len(want), cat.IDs)
	}
	for i, id := range want {
		if cat.IDs[i] != id {
			t.Errorf("IDs[%d] = %s, want %s", i, cat.IDs[i], id)
		}
	}

	if name, ok := cat.DisplayName("XXBTZUSD"); !ok || name != "XBT/USD" {
		t.Errorf("DisplayName(XXBTZUSD) = %q, %v", name, ok)
	}
	if _, ok := cat.DisplayName("LEGACY.d"); ok {
		t.Error("pair without wsname should be excluded")
	}

	pairs := cat.Pairs()
	if len(pairs) != 3 || pairs[0].ID != "ADAEUR" || pairs[0].DisplayName != "ADA/EUR" {
		t.Errorf("unexpected pairs: %+v", pairs)
	}
}

func TestLoad_FetchErrorIsReturned(t *testing.T) {
	client := stub.NewRESTClient()
	client.PairsErr = &kraken.FetchError{
		Endpoint: kraken.EndpointAssetPairs,
		Err:      &kraken.APIError{Messages: []string{"EService:Unavailable"}},
	}

	loader := NewLoader(LoaderOptions{Client: client, Logger: quietLogger()})
	cat, err := loader.Load(context.Background())
	if cat != nil {
		t.Error("expected nil catalog on failure")
	}

	var fetchErr *kraken.FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("expected FetchError, got %v", err)
	}
	if !kraken.IsUpstreamError(err) {
		t.Error("expected upstream error list to be preserved")
	}
}

func TestLoad_Empty(t *testing.T) {
	loader := NewLoader(LoaderOptions{Client: stub.NewRESTClient()})
	cat, err := loader.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cat.Len() != 0 {
		t.Errorf("expected empty catalog, got %d", cat.Len())
	}
}
