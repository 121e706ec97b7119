package indicators

import (
	"math"
	"testing"
	"time"

	"github.com/markcheno/go-talib"

	"TradeGuard/internal/domain/models"
)

func series(closes ...float64) []models.Candle {
	out := make([]models.Candle, len(closes))
	base := time.Date(2024, 10, 10, 3, 45, 0, 0, time.UTC).Unix()
	for i, c := range closes {
		out[i] = models.Candle{
			Time:   base + int64(i)*900,
			Open:   c - 0.5,
			High:   c + 1,
			Low:    c - 1,
			Close:  c,
			Volume: 1000 + float64(i)*10,
		}
	}
	return out
}

func wave(n int) []models.Candle {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = 100 + 5*math.Sin(float64(i)/3) + float64(i)*0.1
	}
	return series(closes...)
}

func TestShortHistoryIsNotOK(t *testing.T) {
	cs := series(1, 2, 3, 4)
	if _, ok := EMA(cs, 5); ok {
		t.Fatalf("ema should need 5 bars")
	}
	if _, ok := RSI(cs, 4); ok {
		t.Fatalf("rsi should need 5 bars")
	}
	if _, ok := ATR(cs, 5); ok {
		t.Fatalf("atr should need 5 bars")
	}
	if _, ok := ADX(series(1, 2, 3, 4, 5, 6, 7, 8), 4); ok {
		t.Fatalf("adx should need 9 bars")
	}
	if _, ok := ADX(series(1, 2, 3, 4, 5, 6, 7, 8, 9), 4); !ok {
		t.Fatalf("adx with 2p+1 bars should be ok")
	}
	if _, ok := VWAP(nil, 0); ok {
		t.Fatalf("vwap of nothing should not be ok")
	}
	if _, ok := EMA(nil, 0); ok {
		t.Fatalf("zero period should not be ok")
	}
}

func TestEMASeedIsSMA(t *testing.T) {
	cs := series(2, 4, 6)
	v, ok := EMA(cs, 3)
	if !ok || v != 4 {
		t.Fatalf("expected sma seed 4, got %v %v", v, ok)
	}
	cs = series(2, 4, 6, 8)
	v, _ = EMA(cs, 3)
	if v != 6 {
		t.Fatalf("expected 8*0.5+4*0.5=6, got %v", v)
	}
}

func TestEMASeriesShape(t *testing.T) {
	cs := wave(120)
	for _, p := range []int{9, 21, 50} {
		got := EMASeries(cs, p)
		if len(got) != len(cs) {
			t.Fatalf("ema(%d): length %d, want %d", p, len(got), len(cs))
		}
		for i := 0; i < p-1; i++ {
			if got[i] != 0 {
				t.Fatalf("ema(%d)[%d] before the seed should be 0, got %v", p, i, got[i])
			}
		}
		last, _ := EMA(cs, p)
		if got[len(got)-1] != last {
			t.Fatalf("ema(%d): series tail %v, EMA %v", p, got[len(got)-1], last)
		}
	}
	if EMASeries(cs[:5], 9) != nil {
		t.Fatalf("short history should give a nil series")
	}
}

func TestATRConvergesToTalib(t *testing.T) {
	cs := wave(400)
	highs, lows := make([]float64, len(cs)), make([]float64, len(cs))
	for i, c := range cs {
		highs[i], lows[i] = c.High, c.Low
	}
	ref := talib.Atr(highs, lows, models.Closes(cs), 14)
	got, ok := ATR(cs, 14)
	if !ok || math.Abs(ref[len(ref)-1]-got) > 1e-6 {
		t.Fatalf("atr: talib %v ours %v", ref[len(ref)-1], got)
	}
}

func TestADXConvergesToTalib(t *testing.T) {
	cs := wave(400)
	highs, lows := make([]float64, len(cs)), make([]float64, len(cs))
	for i, c := range cs {
		highs[i], lows[i] = c.High, c.Low
	}
	closes := models.Closes(cs)
	last := len(cs) - 1
	adx := talib.Adx(highs, lows, closes, 14)
	pdi := talib.PlusDI(highs, lows, closes, 14)
	mdi := talib.MinusDI(highs, lows, closes, 14)

	r, ok := ADX(cs, 14)
	if !ok {
		t.Fatalf("expected adx")
	}
	if math.Abs(adx[last]-r.ADX) > 1e-6 || math.Abs(pdi[last]-r.PlusDI) > 1e-6 || math.Abs(mdi[last]-r.MinusDI) > 1e-6 {
		t.Fatalf("talib adx %v +di %v -di %v, ours %+v", adx[last], pdi[last], mdi[last], r)
	}
}

func TestRSIRange(t *testing.T) {
	up := series(1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15)
	v, ok := RSI(up, 14)
	if !ok || v != 100 {
		t.Fatalf("monotonic rise should be 100, got %v", v)
	}
	down := series(15, 14, 13, 12, 11, 10, 9, 8, 7, 6, 5, 4, 3, 2, 1)
	v, _ = RSI(down, 14)
	if v != 0 {
		t.Fatalf("monotonic fall should be 0, got %v", v)
	}
	cs := wave(200)
	for n := 15; n <= len(cs); n++ {
		v, ok := RSI(cs[:n], 14)
		if !ok || v < 0 || v > 100 {
			t.Fatalf("rsi out of range at %d: %v", n, v)
		}
	}
}

func TestRSIBalanced(t *testing.T) {
	cs := series(10, 11, 10, 11, 10)
	v, _ := RSI(cs, 4)
	if v != 50 {
		t.Fatalf("equal gains and losses should give 50, got %v", v)
	}
}

func TestATRConstantRange(t *testing.T) {
	cs := series(100, 100, 100, 100, 100, 100)
	v, ok := ATR(cs, 3)
	if !ok || math.Abs(v-2) > 1e-12 {
		t.Fatalf("expected atr 2, got %v", v)
	}
}

func TestTrueRangeUsesPreviousClose(t *testing.T) {
	cs := []models.Candle{
		{Open: 100, High: 101, Low: 99, Close: 100},
		{Open: 105, High: 106, Low: 104, Close: 105},
	}
	if tr := TrueRange(cs, 0); tr != 2 {
		t.Fatalf("first bar should use high-low, got %v", tr)
	}
	if tr := TrueRange(cs, 1); tr != 6 {
		t.Fatalf("gap should widen true range to 6, got %v", tr)
	}
}

func TestADXTrendingUp(t *testing.T) {
	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 100 + float64(i)*2
	}
	r, ok := ADX(series(closes...), 14)
	if !ok {
		t.Fatalf("expected adx")
	}
	if r.PlusDI <= r.MinusDI {
		t.Fatalf("uptrend should have +DI > -DI: %+v", r)
	}
	if r.ADX < 25 || r.ADX > 100 {
		t.Fatalf("steady trend should read strong adx, got %v", r.ADX)
	}
}

func TestADXFlat(t *testing.T) {
	closes := make([]float64, 40)
	for i := range closes {
		closes[i] = 100
	}
	r, ok := ADX(series(closes...), 14)
	if !ok || r.ADX != 0 {
		t.Fatalf("flat series should have zero adx, got %+v", r)
	}
}

func TestVWAPSession(t *testing.T) {
	cs := []models.Candle{
		{Time: 10, High: 50, Low: 50, Close: 50, Volume: 1000},
		{Time: 20, High: 12, Low: 6, Close: 9, Volume: 100},
		{Time: 30, High: 21, Low: 15, Close: 18, Volume: 200},
	}
	v, ok := VWAP(cs, 20)
	if !ok {
		t.Fatalf("expected vwap")
	}
	want := (9.0*100 + 18.0*200) / 300
	if math.Abs(v-want) > 1e-12 {
		t.Fatalf("vwap: want %v got %v", want, v)
	}
	if _, ok := VWAP(cs, 40); ok {
		t.Fatalf("no candles after start should not be ok")
	}
}

func TestSessionStart(t *testing.T) {
	cs := series(1, 2, 3)
	got := SessionStart(cs, time.UTC)
	want := time.Date(2024, 10, 10, 0, 0, 0, 0, time.UTC).Unix()
	if got != want {
		t.Fatalf("session start: want %d got %d", want, got)
	}
	if n := len(SessionCandles(cs, got)); n != 3 {
		t.Fatalf("expected all 3 candles in session, got %d", n)
	}
}

func TestVolumeRatio(t *testing.T) {
	cs := []models.Candle{{Volume: 100}, {Volume: 300}, {Volume: 400}}
	r, ok := VolumeRatio(cs, 2)
	if !ok || r != 2 {
		t.Fatalf("expected ratio 2, got %v", r)
	}
	if _, ok := VolumeRatio(cs, 3); ok {
		t.Fatalf("not enough history")
	}
}

func TestPercentChange(t *testing.T) {
	cs := series(100, 105, 110)
	v, ok := PercentChange(cs, 2)
	if !ok || math.Abs(v-10) > 1e-12 {
		t.Fatalf("expected 10%%, got %v", v)
	}
}
