package bundle_test

import (
	"path/filepath"
	"strings"
	"testing"

	"cablesweep/internal/bundle"
)

func TestLoadFixture(t *testing.T) {
	b, dir, err := bundle.Load(filepath.Join("testdata", "Report.xml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if dir != "testdata" {
		t.Errorf("dir = %q, want %q", dir, "testdata")
	}
	if b.Version != "2.1" {
		t.Errorf("Version = %q", b.Version)
	}
	if len(b.Devices.Device) != 1 {
		t.Fatalf("expected 1 device, got %d", len(b.Devices.Device))
	}
	d := b.Devices.Device[0]
	if d.SerialNumber != "SN-0042" || d.Model != "SiteHawk 400" {
		t.Errorf("unexpected device: %+v", d)
	}
	if got := d.Details.DeviceDetails[0].CalDate; got != "2024-03-01T09:30:00+01:00" {
		t.Errorf("CalDate = %q", got)
	}

	if len(b.States.State) != 2 {
		t.Fatalf("expected 2 states, got %d", len(b.States.State))
	}
	dtf, rl := b.States.State[0], b.States.State[1]
	if dtf.RxKHz == nil || *dtf.RxKHz != "1710000:2170000" {
		t.Errorf("DTF Rx_kHz = %v", dtf.RxKHz)
	}
	if rl.RxKHz != nil || rl.DistanceM != nil || rl.CableLossDBPerM != nil {
		t.Errorf("RL state should omit DTF-only fields: %+v", rl)
	}
	if rl.Limits.Limit[0].Range == nil {
		t.Error("expected RL limit range")
	}

	tests := b.Reports.Report[0].Items.Test
	if len(tests) != 4 {
		t.Fatalf("expected 4 tests, got %d", len(tests))
	}
	first := tests[0]
	if got := first.TagValues(); len(got) != 1 || got[0] != "CABLE-2" {
		t.Errorf("tags = %v", got)
	}
	if len(first.Assets.Asset) != 2 || first.Assets.Asset[1] != "T-1.csv" {
		t.Errorf("assets = %v", first.Assets.Asset)
	}
	if first.Results.TestResult.Maximum != "12.5:1.234" {
		t.Errorf("Maximum = %q", first.Results.TestResult.Maximum)
	}
}

// TestDecodeStripsNonASCII covers the degree sign in the fixture's limit name.
func TestDecodeStripsNonASCII(t *testing.T) {
	b, _, err := bundle.Load(filepath.Join("testdata", "Report.xml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := b.States.State[0].Limits.Limit[0].Name; got != "DTF limit " {
		t.Errorf("Name = %q, want %q", got, "DTF limit ")
	}
}

func TestDecodeInvalidBytesAndCharset(t *testing.T) {
	doc := "\xef\xbb\xbf<?xml version=\"1.0\" encoding=\"ISO-8859-1\"?>" +
		"<Bundle><Version>1\xe9</Version></Bundle>"
	b, err := bundle.Decode(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if b.Version != "1" {
		t.Errorf("Version = %q, want %q", b.Version, "1")
	}
}

func TestDecodeStripsLatin1Bytes(t *testing.T) {
	doc := "<Bundle><Reports><Report><Items>" +
		"<Test><ID>T\xb0</ID><Tags><Tag>A</Tag><Tag>B\xe9</Tag></Tags></Test>" +
		"</Items></Report></Reports></Bundle>"
	b, err := bundle.Decode(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	test := b.Reports.Report[0].Items.Test[0]
	if test.ID != "T" {
		t.Errorf("ID = %q, want %q", test.ID, "T")
	}
	if got := test.TagValues(); len(got) != 2 || got[0] != "A" || got[1] != "B" {
		t.Errorf("tags = %v, want [A B]", got)
	}
}

func TestDecodeMultipleTagForms(t *testing.T) {
	doc := `<Bundle><Reports><Report><Items>
<Test><Tags><Tag>A</Tag></Tags><Tags><Tag>B</Tag></Tags></Test>
<Test><Tags><Tag>C</Tag><Tag>D</Tag></Tags></Test>
<Test><Tags/></Test>
<Test></Test>
</Items></Report></Reports></Bundle>`
	b, err := bundle.Decode(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	tests := b.Reports.Report[0].Items.Test
	want := []int{2, 2, 0, 0}
	for i, n := range want {
		if got := len(tests[i].TagValues()); got != n {
			t.Errorf("test %d: %d tags, want %d", i, got, n)
		}
	}
}

func TestDecodeEmpty(t *testing.T) {
	if _, err := bundle.Decode(strings.NewReader("")); err == nil {
		t.Fatal("expected error for empty document")
	}
}

func TestDecodeMalformed(t *testing.T) {
	if _, err := bundle.Decode(strings.NewReader("<Bundle><Devices>")); err == nil {
		t.Fatal("expected error for truncated document")
	}
}

func TestLoadMissing(t *testing.T) {
	if _, _, err := bundle.Load(filepath.Join(t.TempDir(), "Report.xml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
