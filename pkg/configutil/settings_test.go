package configutil

import "testing"

func TestDecodeSettingsNormalizesKeys(t *testing.T) {
	var out struct {
		APIKey  string `mapstructure:"api_key"`
		Retries int    `mapstructure:"retries"`
	}
	input := map[string]any{
		"API-KEY": "secret",
		"retries": "3",
	}
	if err := DecodeSettings(input, &out); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if out.APIKey != "secret" {
		t.Fatalf("api key not decoded: %q", out.APIKey)
	}
	if out.Retries != 3 {
		t.Fatalf("weakly typed int not decoded: %d", out.Retries)
	}
}

func TestValidateSettingsReportsMissingAndUnknown(t *testing.T) {
	schema := Schema{Required: []string{"api_key"}, Optional: []string{"model"}}
	err := ValidateSettings(map[string]any{"bogus": 1}, schema)
	if err == nil {
		t.Fatalf("expected validation error")
	}
	want := "missing: api_key; unknown: bogus"
	if err.Error() != want {
		t.Fatalf("unexpected error %q, want %q", err.Error(), want)
	}
}

func TestValidateSettingsAcceptsValidInput(t *testing.T) {
	schema := Schema{Required: []string{"api_key"}, Optional: []string{"model"}}
	err := ValidateSettings(map[string]any{"api_key": "k", "model": "m"}, schema)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
