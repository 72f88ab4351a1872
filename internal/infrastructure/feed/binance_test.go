package feed

import "testing"

func TestParseMiniTicker(t *testing.T) {
	tests := []struct {
		name       string
		message    string
		wantSymbol string
		wantPrice  float64
		wantOK     bool
	}{
		{
			name:       "valid event",
			message:    `{"e":"24hrMiniTicker","E":1756400000000,"s":"BTCUSDT","c":"65000.50","o":"64000","h":"66000","l":"63500"}`,
			wantSymbol: "BTC",
			wantPrice:  65000.50,
			wantOK:     true,
		},
		{
			name:       "non-usdt pair keeps full symbol",
			message:    `{"e":"24hrMiniTicker","s":"ETHBTC","c":"0.05"}`,
			wantSymbol: "ETHBTC",
			wantPrice:  0.05,
			wantOK:     true,
		},
		{
			name:    "subscription ack",
			message: `{"result":null,"id":1}`,
			wantOK:  false,
		},
		{
			name:    "wrong event type",
			message: `{"e":"trade","s":"BTCUSDT","c":"65000"}`,
			wantOK:  false,
		},
		{
			name:    "unparseable price",
			message: `{"e":"24hrMiniTicker","s":"BTCUSDT","c":"n/a"}`,
			wantOK:  false,
		},
		{
			name:    "zero price",
			message: `{"e":"24hrMiniTicker","s":"BTCUSDT","c":"0"}`,
			wantOK:  false,
		},
		{
			name:    "not json",
			message: `ping`,
			wantOK:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			symbol, price, ok := parseMiniTicker([]byte(tt.message))
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if symbol != tt.wantSymbol {
				t.Errorf("symbol = %q, want %q", symbol, tt.wantSymbol)
			}
			if price != tt.wantPrice {
				t.Errorf("price = %f, want %f", price, tt.wantPrice)
			}
		})
	}
}
