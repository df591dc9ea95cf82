package ua

import "testing"

func TestParseDesktopChrome(t *testing.T) {
	raw := "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
		"(KHTML, like Gecko) Chrome/124.0.6367.91 Safari/537.36"
	info := Parse(raw)
	if info.Browser != "Chrome" {
		t.Fatalf("Browser = %q", info.Browser)
	}
	if info.Device != "Desktop" {
		t.Fatalf("Device = %q", info.Device)
	}
	if info.IsBot {
		t.Fatal("chrome flagged as bot")
	}
	if info.Raw != raw {
		t.Fatal("raw header not kept")
	}
}

func TestParseBot(t *testing.T) {
	info := Parse("Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)")
	if !info.IsBot || info.Device != "Bot" {
		t.Fatalf("info = %+v", info)
	}
}

func TestLabel(t *testing.T) {
	raw := "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
		"(KHTML, like Gecko) Chrome/124.0.6367.91 Safari/537.36"
	if got := Parse(raw).Label(); got != "Chrome 124 on Windows (Desktop)" {
		t.Fatalf("Label = %q", got)
	}
	if got := Parse("").Label(); got != "" {
		t.Fatalf("empty header Label = %q", got)
	}
}
