package validate

import (
	"strings"
	"testing"

	"github.com/tallyforge/erpd/internal/result"
)

func TestFirst_OrderAndShortCircuit(t *testing.T) {
	var ran []string
	record := func(name string, err *result.ErrorInfo) Check {
		return func() *result.ErrorInfo {
			ran = append(ran, name)
			return err
		}
	}

	violation := result.Errorf(result.FieldError, "txt must be a non-empty string")
	got := First(
		record("doctype", nil),
		record("txt", violation),
		record("limit", result.Errorf(result.FieldError, "limit must be a positive integer")),
	)

	if got != violation {
		t.Fatalf("First() = %v, want first violation", got)
	}
	if len(ran) != 2 {
		t.Errorf("ran %v checks, want 2 (later checks must not run)", ran)
	}
}

func TestFirst_AllPass(t *testing.T) {
	if err := First(Doctype("doctype", "Customer"), NonEmpty("name", "CUST-0001")); err != nil {
		t.Fatalf("First() = %v, want nil", err)
	}
}

func TestFirst_Idempotent(t *testing.T) {
	checks := []Check{Doctype("doctype", ""), NonEmpty("name", "x")}
	first := First(checks...)
	second := First(checks...)

	if first == nil || second == nil {
		t.Fatal("expected a violation on both evaluations")
	}
	if first.Code != second.Code || first.Message != second.Message {
		t.Errorf("verdict changed between evaluations: %v vs %v", first, second)
	}
}

func TestDoctype(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		wantCode result.Kind
	}{
		{"valid", "Sales Invoice", ""},
		{"empty", "", result.InvalidDoctype},
		{"whitespace_only", "   ", result.InvalidDoctype},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Doctype("doctype", tt.value)()
			if tt.wantCode == "" {
				if err != nil {
					t.Fatalf("Doctype(%q) = %v, want nil", tt.value, err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Doctype(%q) = nil, want %s", tt.value, tt.wantCode)
			}
			if err.Code != tt.wantCode {
				t.Errorf("code = %s, want %s", err.Code, tt.wantCode)
			}
			if err.Message != "doctype must be a non-empty string" {
				t.Errorf("message = %q", err.Message)
			}
		})
	}
}

func TestStringChecks(t *testing.T) {
	tests := []struct {
		name    string
		check   Check
		wantMsg string
	}{
		{"non_empty_passes", NonEmpty("name", "LEAD-00001"), ""},
		{"non_empty_fails", NonEmpty("name", " "), "name must be a non-empty string"},
		{"required_passes", Required("comment", "looks good"), ""},
		{"required_fails", Required("comment", ""), "comment is required"},
		{"not_nil_slice_passes_empty", NotNilSlice("rows", []map[string]any{}), ""},
		{"not_nil_slice_passes_populated", NotNilSlice("rows", []map[string]any{{"qty": 1}}), ""},
		{"not_nil_slice_fails_nil", NotNilSlice[map[string]any]("rows", nil), "rows is required"},
		{"non_empty_slice_passes", NonEmptySlice("items", []int{1}), ""},
		{"non_empty_slice_fails_empty", NonEmptySlice("items", []int{}), "items must be a non-empty array"},
		{"non_empty_slice_fails_nil", NonEmptySlice[int]("items", nil), "items must be a non-empty array"},
		{"max_len_passes", MaxLen("comment", strings.Repeat("a", 10000), 10000), ""},
		{"max_len_fails", MaxLen("comment", strings.Repeat("a", 10001), 10000), "comment must be at most 10000 characters"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.check()
			if tt.wantMsg == "" {
				if err != nil {
					t.Fatalf("check = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("check = nil, want %q", tt.wantMsg)
			}
			if err.Code != result.FieldError {
				t.Errorf("code = %s, want FIELD_ERROR", err.Code)
			}
			if err.Message != tt.wantMsg {
				t.Errorf("message = %q, want %q", err.Message, tt.wantMsg)
			}
		})
	}
}

func TestEmail(t *testing.T) {
	tests := []struct {
		name  string
		value string
		valid bool
	}{
		{"valid", "jane@example.com", true},
		{"valid_subdomain", "jane@mail.example.co.uk", true},
		{"empty_is_skipped", "", true},
		{"missing_at", "jane.example.com", false},
		{"missing_domain", "jane@", false},
		{"spaces", "jane doe@example.com", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Email("email", tt.value)()
			if tt.valid && err != nil {
				t.Fatalf("Email(%q) = %v, want nil", tt.value, err)
			}
			if !tt.valid {
				if err == nil {
					t.Fatalf("Email(%q) = nil, want violation", tt.value)
				}
				if err.Message != "email must be a valid email address" {
					t.Errorf("message = %q", err.Message)
				}
			}
		})
	}
}

func TestNumericChecks(t *testing.T) {
	tests := []struct {
		name    string
		check   Check
		wantMsg string
	}{
		{"positive_passes", Positive("limit", 10), ""},
		{"positive_zero_fails", Positive("limit", 0), "limit must be a positive integer"},
		{"positive_negative_fails", Positive("limit", -1), "limit must be a positive integer"},
		{"optional_positive_passes", OptionalPositive("limit", 10), ""},
		{"optional_positive_zero_passes", OptionalPositive("limit", 0), ""},
		{"optional_positive_negative_fails", OptionalPositive("limit", -1), "limit must be a positive integer"},
		{"qty_passes", GreaterThanZero("qty", 0.5), ""},
		{"qty_zero_fails", GreaterThanZero("qty", 0), "qty must be greater than 0"},
		{"rate_zero_passes", NonNegative("rate", 0), ""},
		{"rate_negative_fails", NonNegative("rate", -1), "rate must be greater than or equal to 0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.check()
			if tt.wantMsg == "" {
				if err != nil {
					t.Fatalf("check = %v, want nil", err)
				}
				return
			}
			if err == nil || err.Message != tt.wantMsg {
				t.Fatalf("check = %v, want %q", err, tt.wantMsg)
			}
		})
	}
}

func TestBase64(t *testing.T) {
	tests := []struct {
		name  string
		value string
		valid bool
	}{
		{"valid", "YWJjZGVm", true},
		{"valid_one_pad", "YWJjZGU=", true},
		{"valid_two_pad", "YWJjZA==", true},
		{"empty_is_skipped", "", true},
		{"bad_length", "YWJjZ", false},
		{"bad_alphabet", "YWJj!GVm", false},
		{"pad_in_middle", "YW=jZGVm", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Base64("content", tt.value)()
			if tt.valid && err != nil {
				t.Fatalf("Base64(%q) = %v, want nil", tt.value, err)
			}
			if !tt.valid && (err == nil || err.Message != "content must be valid base64") {
				t.Fatalf("Base64(%q) = %v, want violation", tt.value, err)
			}
		})
	}
}

func TestDecodedSize(t *testing.T) {
	tests := []struct {
		encoded string
		want    int64
	}{
		{"", 0},
		{"YQ==", 1},
		{"YWI=", 2},
		{"YWJj", 3},
		{"YWJjZA==", 4},
		{strings.Repeat("YWJj", 1024), 3072},
	}

	for _, tt := range tests {
		if got := DecodedSize(tt.encoded); got != tt.want {
			t.Errorf("DecodedSize(%d chars) = %d, want %d", len(tt.encoded), got, tt.want)
		}
	}
}

func TestMaxDecodedSize(t *testing.T) {
	const msg = "File size exceeds maximum limit of 10MB"

	t.Run("under_limit_passes", func(t *testing.T) {
		if err := MaxDecodedSize("YWJjZGVm", 6, msg)(); err != nil {
			t.Fatalf("got %v, want nil", err)
		}
	})

	t.Run("over_limit_fails_with_fixed_message", func(t *testing.T) {
		err := MaxDecodedSize("YWJjZGVmZw==", 6, msg)()
		if err == nil {
			t.Fatal("got nil, want violation")
		}
		if err.Code != result.FieldError || err.Message != msg {
			t.Errorf("got %v", err)
		}
	})
}

func TestIndexed(t *testing.T) {
	if got := Indexed("items", 2, "qty"); got != "items[2].qty" {
		t.Errorf("Indexed() = %q", got)
	}
}
