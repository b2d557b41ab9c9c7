package export

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/cmbsims/scanpar/pkg/params"
)

func sampleSet(t *testing.T) *params.Set {
	t.Helper()
	input := `[s4cmb]
nside_out = 512 I
do_pol = True B
sampling_freq = 15.0 F
start_date = 2013/1/1 00:00:00 S
array_noise_level = None N
`
	file, err := params.Parse(strings.NewReader(input), params.Options{})
	if err != nil {
		t.Fatalf("Failed to parse sample: %v", err)
	}
	set, _ := file.Section("s4cmb")
	return set
}

func TestRegistry(t *testing.T) {
	formats := DefaultRegistry.List()
	for _, want := range []string{"ini", "legacy-ini", "yaml", "toml", "json"} {
		found := false
		for _, f := range formats {
			if f == want {
				found = true
			}
		}
		if !found {
			t.Errorf("Expected format %s to be registered, have %v", want, formats)
		}
	}

	if _, err := DefaultRegistry.Get("xml"); err == nil {
		t.Errorf("Expected unknown format to be rejected")
	}

	if err := DefaultRegistry.Register(&IniEncoder{}); err == nil {
		t.Errorf("Expected duplicate registration to fail")
	}
}

func TestIniRoundTrip(t *testing.T) {
	set := sampleSet(t)

	var buf bytes.Buffer
	if err := Encode(&buf, "ini", set); err != nil {
		t.Fatalf("Failed to encode: %v", err)
	}

	out := buf.String()
	if !strings.HasPrefix(out, "[s4cmb]\n") {
		t.Errorf("Expected section header, got:\n%s", out)
	}
	if !strings.Contains(out, "start_date = 2013/1/1 00:00:00 S") {
		t.Errorf("Expected tagged start_date line, got:\n%s", out)
	}
	if !strings.Contains(out, "array_noise_level = None N") {
		t.Errorf("Expected None line, got:\n%s", out)
	}

	file, err := params.Parse(strings.NewReader(out), params.Options{})
	if err != nil {
		t.Fatalf("Failed to reparse encoded output: %v", err)
	}
	reparsed, _ := file.Section("s4cmb")

	if reparsed.Len() != set.Len() {
		t.Fatalf("Expected %d entries after round trip, got %d", set.Len(), reparsed.Len())
	}
	for i, key := range set.Keys() {
		if reparsed.Keys()[i] != key {
			t.Errorf("Expected key order to survive, got %v", reparsed.Keys())
			break
		}
		before, _ := set.Lookup(key)
		after, _ := reparsed.Lookup(key)
		if before.Value != after.Value || before.Tag != after.Tag {
			t.Errorf("Expected %s to survive the round trip, got %+v vs %+v", key, before, after)
		}
	}
}

func TestIniGroupBanners(t *testing.T) {
	set := sampleSet(t)

	var buf bytes.Buffer
	enc := &IniEncoder{Schema: params.DefaultSchema()}
	if err := enc.Encode(&buf, set); err != nil {
		t.Fatalf("Failed to encode: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "# output parameters") {
		t.Errorf("Expected output group banner, got:\n%s", out)
	}
	if !strings.Contains(out, "# scan parameters") {
		t.Errorf("Expected scan group banner, got:\n%s", out)
	}
	// Two output-group keys, one banner.
	if strings.Count(out, "# output parameters") != 1 {
		t.Errorf("Expected a single banner per group, got:\n%s", out)
	}
}

func TestLegacyIniEncodesUntagged(t *testing.T) {
	set := sampleSet(t)

	var buf bytes.Buffer
	if err := Encode(&buf, "legacy-ini", set); err != nil {
		t.Fatalf("Failed to encode: %v", err)
	}

	out := buf.String()
	if strings.Contains(out, " I\n") || strings.Contains(out, " B\n") || strings.Contains(out, " N\n") {
		t.Errorf("Expected no tags in legacy output, got:\n%s", out)
	}
	if !strings.Contains(out, "array_noise_level = None") {
		t.Errorf("Expected legacy None literal, got:\n%s", out)
	}

	// Legacy output reloads through the schema with the same types.
	file, err := params.Parse(strings.NewReader(out), params.Options{})
	if err != nil {
		t.Fatalf("Failed to reparse legacy output: %v", err)
	}
	reparsed, _ := file.Section("s4cmb")
	if v, err := reparsed.Int("nside_out"); err != nil || v != 512 {
		t.Errorf("Expected nside_out to reload as integer, got %d (err: %v)", v, err)
	}
	if !reparsed.IsNone("array_noise_level") {
		t.Errorf("Expected None to reload through the schema")
	}
}

func TestYamlEncoder(t *testing.T) {
	set := sampleSet(t)

	var buf bytes.Buffer
	if err := Encode(&buf, "yaml", set); err != nil {
		t.Fatalf("Failed to encode: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "array_noise_level: null") {
		t.Errorf("Expected None to become null, got:\n%s", out)
	}
	// File order survives.
	if strings.Index(out, "nside_out") > strings.Index(out, "do_pol") {
		t.Errorf("Expected file order to be preserved, got:\n%s", out)
	}

	var doc map[string]map[string]interface{}
	if err := yaml.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("Encoded yaml does not parse: %v", err)
	}
	values, ok := doc["s4cmb"]
	if !ok {
		t.Fatalf("Expected values under the section name, got %v", doc)
	}
	if values["nside_out"] != 512 {
		t.Errorf("Expected nside_out 512, got %v", values["nside_out"])
	}
	if values["do_pol"] != true {
		t.Errorf("Expected do_pol true, got %v", values["do_pol"])
	}
	if values["start_date"] != "2013/1/1 00:00:00" {
		t.Errorf("Expected start_date string, got %v", values["start_date"])
	}
}

func TestTomlEncoderOmitsNone(t *testing.T) {
	set := sampleSet(t)

	var buf bytes.Buffer
	if err := Encode(&buf, "toml", set); err != nil {
		t.Fatalf("Failed to encode: %v", err)
	}

	out := buf.String()
	if strings.Contains(out, "array_noise_level") {
		t.Errorf("Expected None parameter to be omitted, got:\n%s", out)
	}

	var doc map[string]map[string]interface{}
	if err := toml.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("Encoded toml does not parse: %v", err)
	}
	values := doc["s4cmb"]
	if values["nside_out"] != int64(512) {
		t.Errorf("Expected nside_out 512, got %v", values["nside_out"])
	}
	if values["sampling_freq"] != 15.0 {
		t.Errorf("Expected sampling_freq 15.0, got %v", values["sampling_freq"])
	}
}

func TestJsonEncoder(t *testing.T) {
	set := sampleSet(t)

	var buf bytes.Buffer
	if err := Encode(&buf, "json", set); err != nil {
		t.Fatalf("Failed to encode: %v", err)
	}

	var doc map[string]map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("Encoded json does not parse: %v", err)
	}
	values := doc["s4cmb"]
	if values["nside_out"] != float64(512) {
		t.Errorf("Expected nside_out 512, got %v", values["nside_out"])
	}
	level, present := values["array_noise_level"]
	if !present || level != nil {
		t.Errorf("Expected explicit null for None, got %v (present: %v)", level, present)
	}
}
