package util

import (
	"strconv"
	"testing"
	"time"
)

func TestParseTimeRFC3339(t *testing.T) {
	s := "2024-10-10T10:10:10Z"
	got, ok := ParseTime(s)
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.UTC().Format(time.RFC3339) != s {
		t.Fatalf("unexpected time %v", got)
	}
}

func TestParseTimeBrokerLayout(t *testing.T) {
	got, ok := ParseTime("2024-10-10T09:15:00+0530")
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.Unix() != 1728531900 {
		t.Fatalf("unexpected unix %v", got.Unix())
	}
}

func TestParseTimeUnix(t *testing.T) {
	ts := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC).Unix()
	got, ok := ParseTime(strconv.FormatInt(ts, 10))
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.Unix() != ts {
		t.Fatalf("unexpected unix %v", got.Unix())
	}
	ms, ok := ParseTime(strconv.FormatInt(ts*1000, 10))
	if !ok || ms.Unix() != ts {
		t.Fatalf("milliseconds not scaled: %v", ms)
	}
}

func TestParseIntDefaultAndClamp(t *testing.T) {
	if ParseIntDefault(" 25 ", 10) != 25 || ParseIntDefault("x", 10) != 10 {
		t.Fatalf("ParseIntDefault")
	}
	if ClampInt(500, 1, 100) != 100 || ClampInt(-3, 1, 100) != 1 || ClampInt(7, 1, 100) != 7 {
		t.Fatalf("ClampInt")
	}
}
