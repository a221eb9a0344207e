package manifest

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/sebdah/goldie/v2"
)

const testdataDir = "testdata"

func testPath(name string) string {
	return filepath.Join(testdataDir, name)
}

func sampleManifest() Manifest {
	return Manifest{
		{Name: "Foo", Version: "1.0", Active: true, Slug: "foo"},
		{Name: "Hello Dolly", Version: "1.7.2", Active: false, Slug: "hello-dolly"},
	}
}

func TestEncode_JSONGolden(t *testing.T) {
	data, err := Encode(sampleManifest(), FormatJSON)
	if err != nil {
		t.Fatalf("Encode error: %v", err)
	}

	g := goldie.New(t)
	g.Assert(t, "export", data)
}

func TestEncode_NilIsEmptyList(t *testing.T) {
	data, err := Encode(nil, FormatJSON)
	if err != nil {
		t.Fatalf("Encode error: %v", err)
	}
	if string(data) != "[]\n" {
		t.Errorf("Encode(nil) = %q, want %q", data, "[]\n")
	}
}

func TestRoundTrip(t *testing.T) {
	manifests := map[string]Manifest{
		"sample":     sampleManifest(),
		"empty":      {},
		"duplicates": {{Slug: "a", Active: true}, {Slug: "a", Active: true}},
		"no slug":    {{Name: "Orphan", Version: "0.1"}},
		"unicode":    {{Name: "Ünïcödé Plugin", Version: "2.0.0-beta.1", Slug: "unicode-plugin"}},
	}

	for name, m := range manifests {
		for _, format := range []Format{FormatJSON, FormatYAML} {
			t.Run(name+"/"+string(format), func(t *testing.T) {
				data, err := Encode(m, format)
				if err != nil {
					t.Fatalf("Encode error: %v", err)
				}
				got, err := Decode(data)
				if err != nil {
					t.Fatalf("Decode error: %v\n%s", err, data)
				}
				if !reflect.DeepEqual(got, m) {
					t.Errorf("round trip mismatch:\n got  %#v\n want %#v", got, m)
				}
			})
		}
	}
}

func TestReadFile_ValidJSON(t *testing.T) {
	m, err := ReadFile(testPath("valid.json"))
	if err != nil {
		t.Fatalf("ReadFile error: %v", err)
	}
	if len(m) != 3 {
		t.Fatalf("len = %d, want 3 (duplicates are kept)", len(m))
	}
	if m[0].Slug != "akismet" || !m[0].Active {
		t.Errorf("m[0] = %+v, want active akismet", m[0])
	}
	if m[1].Version != "1.7.2" {
		t.Errorf("m[1].Version = %q, want %q", m[1].Version, "1.7.2")
	}
}

func TestReadFile_ValidYAML(t *testing.T) {
	m, err := ReadFile(testPath("valid.yaml"))
	if err != nil {
		t.Fatalf("ReadFile error: %v", err)
	}
	want := Manifest{
		{Name: "Classic Editor", Version: "1.6.3", Active: true, Slug: "classic-editor"},
		{Name: "Query Monitor", Version: "3.15.0", Active: false, Slug: "query-monitor"},
	}
	if !reflect.DeepEqual(m, want) {
		t.Errorf("got %+v, want %+v", m, want)
	}
}

func TestReadFile_JSONEscapes(t *testing.T) {
	m, err := ReadFile(testPath("escaped.json"))
	if err != nil {
		t.Fatalf("ReadFile error: %v", err)
	}
	want := Manifest{
		{Name: "WooCommerce / Payments", Version: "8.1.0", Active: true, Slug: "woocommerce-payments"},
		{Name: "\U0001F600 Caf\u00e9 Emoji", Version: "1.0", Active: false, Slug: "cafe-emoji"},
		{Name: "Stats", Version: "13.2", Active: true, Slug: "stats"},
	}
	if !reflect.DeepEqual(m, want) {
		t.Errorf("got %+v, want %+v", m, want)
	}
}

func TestDecode_JSONAndYAMLShapes(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    Manifest
	}{
		{"byte order mark", "\xEF\xBB\xBF[{\"slug\":\"foo\"}]", Manifest{{Slug: "foo"}}},
		{"yaml flow list", "[{slug: foo, active: true}]", Manifest{{Slug: "foo", Active: true}}},
		{"yaml block list", "- slug: foo\n  name: Foo\n", Manifest{{Name: "Foo", Slug: "foo"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode([]byte(tt.payload))
			if err != nil {
				t.Fatalf("Decode error: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestDecode_TrailingJSONRejected(t *testing.T) {
	_, err := Decode([]byte(`[{"slug":"foo"}] [{"slug":"bar"}]`))
	if !IsDecodeError(err) {
		t.Errorf("err = %v, want *DecodeError", err)
	}
}

func TestDecode_PartialRecordsTolerated(t *testing.T) {
	m, err := ReadFile(testPath("partial.json"))
	if err != nil {
		t.Fatalf("ReadFile error: %v", err)
	}
	if len(m) != 3 {
		t.Fatalf("len = %d, want 3", len(m))
	}
	if !m[0].Actionable() || m[0].Name != "" || m[0].Active {
		t.Errorf("m[0] = %+v, want slug-only record", m[0])
	}
	if m[1].Actionable() {
		t.Errorf("m[1] should not be actionable without a slug")
	}
	if m[2].Slug != "future" {
		t.Errorf("unknown fields should be ignored, got %+v", m[2])
	}
}

func TestDecode_Invalid(t *testing.T) {
	files := []struct {
		file string
		desc string
	}{
		{"invalid-not-list.json", "top level is an object"},
		{"invalid-bad-slug.json", "slug escapes the extension directory"},
		{"invalid-active-type.json", "active is not a boolean"},
		{"invalid-not-json.json", "truncated document"},
	}

	for _, tt := range files {
		t.Run(tt.file, func(t *testing.T) {
			_, err := ReadFile(testPath(tt.file))
			if err == nil {
				t.Fatalf("expected error for %s (%s), got nil", tt.file, tt.desc)
			}
			if !IsDecodeError(err) {
				t.Errorf("expected *DecodeError for %s, got %T: %v", tt.file, err, err)
			}
		})
	}
}

func TestDecode_IssuesCarryPath(t *testing.T) {
	data, err := os.ReadFile(testPath("invalid-active-type.json"))
	if err != nil {
		t.Fatal(err)
	}
	_, err = Decode(data)

	var de *DecodeError
	if !errors.As(err, &de) {
		t.Fatalf("expected *DecodeError, got %v", err)
	}
	if len(de.Issues) == 0 {
		t.Fatal("expected at least one issue")
	}
	if de.Issues[0].Path != "/0/active" {
		t.Errorf("Issues[0].Path = %q, want %q", de.Issues[0].Path, "/0/active")
	}
}

func TestDecode_EmptyPayload(t *testing.T) {
	for _, payload := range []string{"", "null", "   \n"} {
		if _, err := Decode([]byte(payload)); !IsDecodeError(err) {
			t.Errorf("Decode(%q) err = %v, want *DecodeError", payload, err)
		}
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatJSON, false},
		{"JSON", FormatJSON, false},
		{"yml", FormatYAML, false},
		{"yaml", FormatYAML, false},
		{"xml", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseFormat(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatFromPath(t *testing.T) {
	if FormatFromPath("plugins.YML") != FormatYAML {
		t.Error("expected YAML for .YML")
	}
	if FormatFromPath("pluginsync.json") != FormatJSON {
		t.Error("expected JSON for .json")
	}
}
